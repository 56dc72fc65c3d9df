package notification

import "deployhub/models"

// Template names understood by the email renderer.
const (
	TemplateDeployment = "deployment-notification"
	TemplatePayment    = "payment-notification"
	TemplateOrder      = "order-notification"
	TemplateSale       = "sale-notification"
	TemplateProject    = "project-notification"
	TemplateLicense    = "license-notification"
	TemplateWelcome    = "welcome"
	TemplateAccount    = "account-notification"
)

var scopeTemplates = map[models.NotificationScope]string{
	models.ScopeDeployment: TemplateDeployment,
	models.ScopePayment:    TemplatePayment,
	models.ScopeOrder:      TemplateOrder,
	models.ScopeSale:       TemplateSale,
	models.ScopeProjects:   TemplateProject,
	models.ScopeLicenses:   TemplateLicense,
	models.ScopeWelcome:    TemplateWelcome,
	models.ScopeAccount:    TemplateAccount,
}

// TemplateForScope returns the default template for a scope, or "" when the scope is unknown.
func TemplateForScope(scope models.NotificationScope) string {
	return scopeTemplates[scope]
}
