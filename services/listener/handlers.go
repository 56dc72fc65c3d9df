package listener

import (
	"context"
	"fmt"
	"time"

	"deployhub/models"

	"go.uber.org/zap"
)

func (l *Listener) OrderCreated(ctx context.Context, e models.OrderCreatedEvent) {
	l.notifyPair(ctx, models.EventOrderCreated, e.BuyerID, e.BuyerEmail, models.ScopeOrder,
		"Order received",
		fmt.Sprintf("Your order for %s (%s) was received and is awaiting payment.", e.ProjectName, e.LicenseName),
		map[string]any{
			"orderId":     e.OrderID,
			"projectName": e.ProjectName,
			"licenseName": e.LicenseName,
			"amount":      e.Amount,
			"currency":    e.Currency,
		})
}

// OrderCompleted notifies the buyer of the purchase and the license owner of the sale.
func (l *Listener) OrderCompleted(ctx context.Context, e models.OrderCompletedEvent) {
	data := map[string]any{
		"orderId":     e.OrderID,
		"projectName": e.ProjectName,
		"licenseName": e.LicenseName,
		"amount":      e.Amount,
		"currency":    e.Currency,
	}
	l.notifyPair(ctx, models.EventOrderCompleted, e.BuyerID, e.BuyerEmail, models.ScopeOrder,
		"Order completed",
		fmt.Sprintf("Your purchase of %s (%s) is complete. Amount: %s.", e.ProjectName, e.LicenseName, formatAmount(e.Amount, e.Currency)),
		data)

	saleData := map[string]any{"buyerEmail": e.BuyerEmail}
	for k, v := range data {
		saleData[k] = v
	}
	l.notifyPair(ctx, models.EventOrderCompleted, e.LicenseOwnerID, e.LicenseOwnerEmail, models.ScopeSale,
		"New sale",
		fmt.Sprintf("You sold a %s license for %s. Amount: %s.", e.LicenseName, e.ProjectName, formatAmount(e.Amount, e.Currency)),
		saleData)
}

func (l *Listener) PaymentFailed(ctx context.Context, e models.PaymentFailedEvent) {
	reason := e.Reason
	if reason == "" {
		reason = "the payment was declined"
	}
	l.notifyPair(ctx, models.EventPaymentFailed, e.BuyerID, e.BuyerEmail, models.ScopePayment,
		"Payment failed",
		fmt.Sprintf("Your payment of %s for order %s failed: %s.", formatAmount(e.Amount, e.Currency), e.OrderID, reason),
		map[string]any{
			"orderId":   e.OrderID,
			"paymentId": e.PaymentID,
			"amount":    e.Amount,
			"currency":  e.Currency,
			"reason":    reason,
		})
}

// DeploymentStarted is in-app only.
func (l *Listener) DeploymentStarted(ctx context.Context, e models.DeploymentStartedEvent) {
	l.notify(ctx, models.EventDeploymentStarted, models.CreateNotificationInput{
		Type:    models.NotificationTypeSystem,
		Scope:   models.ScopeDeployment,
		UserID:  e.UserID,
		Subject: "Deployment started",
		Message: fmt.Sprintf("Deployment of %s to %s has started.", e.ProjectName, e.Environment),
		Data: map[string]any{
			"deploymentId": e.DeploymentID,
			"projectName":  e.ProjectName,
			"environment":  e.Environment,
			"status":       "started",
		},
	})
}

func (l *Listener) DeploymentCompleted(ctx context.Context, e models.DeploymentCompletedEvent) {
	data := map[string]any{
		"deploymentId": e.DeploymentID,
		"projectName":  e.ProjectName,
		"environment":  e.Environment,
		"status":       "completed",
		"url":          e.URL,
	}
	if e.Duration > 0 {
		data["duration"] = e.Duration.Round(time.Second).String()
	}
	l.notifyPair(ctx, models.EventDeploymentCompleted, e.UserID, e.UserEmail, models.ScopeDeployment,
		"Deployment completed",
		fmt.Sprintf("%s was deployed to %s successfully.", e.ProjectName, e.Environment),
		data)
}

func (l *Listener) DeploymentFailed(ctx context.Context, e models.DeploymentFailedEvent) {
	l.notifyPair(ctx, models.EventDeploymentFailed, e.UserID, e.UserEmail, models.ScopeDeployment,
		"Deployment failed",
		fmt.Sprintf("Deployment of %s to %s failed: %s", e.ProjectName, e.Environment, e.Reason),
		map[string]any{
			"deploymentId": e.DeploymentID,
			"projectName":  e.ProjectName,
			"environment":  e.Environment,
			"status":       "failed",
			"reason":       e.Reason,
		})
}

func (l *Listener) ProjectApproved(ctx context.Context, e models.ProjectApprovedEvent) {
	l.notifyPair(ctx, models.EventProjectApproved, e.OwnerID, e.OwnerEmail, models.ScopeProjects,
		"Project approved",
		fmt.Sprintf("Your project %s was approved and is now listed.", e.ProjectName),
		map[string]any{
			"projectId":   e.ProjectID,
			"projectName": e.ProjectName,
			"status":      "approved",
			"comment":     e.Comment,
		})
}

func (l *Listener) ProjectRejected(ctx context.Context, e models.ProjectRejectedEvent) {
	l.notifyPair(ctx, models.EventProjectRejected, e.OwnerID, e.OwnerEmail, models.ScopeProjects,
		"Project rejected",
		fmt.Sprintf("Your project %s was rejected: %s", e.ProjectName, e.Reason),
		map[string]any{
			"projectId":   e.ProjectID,
			"projectName": e.ProjectName,
			"status":      "rejected",
			"reason":      e.Reason,
		})
}

func (l *Listener) UserCreated(ctx context.Context, e models.UserCreatedEvent) {
	name := e.Username
	if name == "" {
		name = e.Email
	}
	l.notifyPair(ctx, models.EventUserCreated, e.UserID, e.Email, models.ScopeWelcome,
		"Welcome to DeployHub",
		fmt.Sprintf("Hi %s, your account is ready.", name),
		map[string]any{"username": e.Username})
}

func (l *Listener) PasswordChanged(ctx context.Context, e models.PasswordChangedEvent) {
	changedAt := e.ChangedAt
	if changedAt.IsZero() {
		changedAt = time.Now()
		l.logger.Debug("Password change event without timestamp", zap.String("userId", e.UserID))
	}
	l.notifyPair(ctx, models.EventUserPasswordChanged, e.UserID, e.Email, models.ScopeAccount,
		"Your password was changed",
		"The password for your account was just changed.",
		map[string]any{"changedAt": changedAt})
}
