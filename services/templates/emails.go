package templates

import "github.com/a-h/templ"

func deploymentEmail(d map[string]any) templ.Component {
	return layout(titleOr(d, "Deployment update"),
		paragraph(str(d, "message")),
		details(
			row("Project", str(d, "projectName")),
			row("Environment", str(d, "environment")),
			row("Status", str(d, "status")),
			row("Duration", str(d, "duration")),
			row("Reason", str(d, "reason")),
		),
		button("Open deployment", str(d, "url")),
	)
}

func paymentEmail(d map[string]any) templ.Component {
	return layout(titleOr(d, "Payment update"),
		paragraph(str(d, "message")),
		details(
			row("Order", str(d, "orderId")),
			row("Amount", money(d)),
			row("Reason", str(d, "reason")),
		),
		paragraph("If you believe this is a mistake, please update your payment method and try again."),
	)
}

func orderEmail(d map[string]any) templ.Component {
	return layout(titleOr(d, "Your order"),
		paragraph(str(d, "message")),
		details(
			row("Order", str(d, "orderId")),
			row("Project", str(d, "projectName")),
			row("License", str(d, "licenseName")),
			row("Amount", money(d)),
		),
	)
}

func saleEmail(d map[string]any) templ.Component {
	return layout(titleOr(d, "You made a sale"),
		paragraph(str(d, "message")),
		details(
			row("Order", str(d, "orderId")),
			row("Project", str(d, "projectName")),
			row("License", str(d, "licenseName")),
			row("Buyer", str(d, "buyerEmail")),
			row("Amount", money(d)),
		),
	)
}

func projectEmail(d map[string]any) templ.Component {
	return layout(titleOr(d, "Project review"),
		paragraph(str(d, "message")),
		details(
			row("Project", str(d, "projectName")),
			row("Status", str(d, "status")),
			row("Comment", str(d, "comment")),
			row("Reason", str(d, "reason")),
		),
	)
}

func licenseEmail(d map[string]any) templ.Component {
	return layout(titleOr(d, "License notice"),
		paragraph(str(d, "message")),
		details(
			row("Project", str(d, "projectName")),
			row("License", str(d, "licenseName")),
			row("Expires", str(d, "expiresAt")),
			row("Days left", str(d, "daysLeft")),
		),
		paragraph("Renew your license to keep access to the project."),
	)
}

func welcomeEmail(d map[string]any) templ.Component {
	name := str(d, "username")
	greeting := "Welcome to DeployHub!"
	if name != "" {
		greeting = "Welcome to DeployHub, " + name + "!"
	}
	return layout(titleOr(d, "Welcome"),
		paragraph(greeting),
		paragraph(str(d, "message")),
	)
}

func accountEmail(d map[string]any) templ.Component {
	return layout(titleOr(d, "Account security"),
		paragraph(str(d, "message")),
		details(row("Changed at", str(d, "changedAt"))),
		paragraph("If this wasn't you, contact support immediately."),
	)
}
