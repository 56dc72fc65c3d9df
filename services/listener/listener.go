package listener

import (
	"context"
	"fmt"

	"deployhub/models"
	"deployhub/services/events"

	"go.uber.org/zap"
)

// Creator is the part of the notification service the listener needs.
type Creator interface {
	Create(ctx context.Context, in models.CreateNotificationInput) (*models.Notification, error)
}

// Listener turns domain events into notifications. Every create is attempted on its own;
// a failure is logged and never reaches the emitter.
type Listener struct {
	notifications Creator
	logger        *zap.Logger
}

func NewListener(notifications Creator, logger *zap.Logger) (*Listener, error) {
	if notifications == nil {
		return nil, fmt.Errorf("listener initialization error: notification service is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Listener{notifications: notifications, logger: logger}, nil
}

// Register subscribes the listener to every domain event it handles.
func (l *Listener) Register(bus *events.Bus) {
	bus.On(models.EventOrderCreated, handle(l.OrderCreated))
	bus.On(models.EventOrderCompleted, handle(l.OrderCompleted))
	bus.On(models.EventPaymentFailed, handle(l.PaymentFailed))
	bus.On(models.EventDeploymentStarted, handle(l.DeploymentStarted))
	bus.On(models.EventDeploymentCompleted, handle(l.DeploymentCompleted))
	bus.On(models.EventDeploymentFailed, handle(l.DeploymentFailed))
	bus.On(models.EventProjectApproved, handle(l.ProjectApproved))
	bus.On(models.EventProjectRejected, handle(l.ProjectRejected))
	bus.On(models.EventUserCreated, handle(l.UserCreated))
	bus.On(models.EventUserPasswordChanged, handle(l.PasswordChanged))
}

// handle adapts a typed handler to the bus. Both T and *T payloads are accepted.
func handle[T any](fn func(context.Context, T)) events.Handler {
	return func(ctx context.Context, payload any) error {
		switch p := payload.(type) {
		case T:
			fn(ctx, p)
		case *T:
			if p == nil {
				return fmt.Errorf("nil %T payload", p)
			}
			fn(ctx, *p)
		default:
			var zero T
			return fmt.Errorf("unexpected payload %T, want %T", payload, zero)
		}
		return nil
	}
}

// notify creates one notification and reports whether it was accepted.
func (l *Listener) notify(ctx context.Context, event string, in models.CreateNotificationInput) bool {
	n, err := l.notifications.Create(ctx, in)
	if err != nil {
		l.logger.Error("Failed to create notification for event",
			zap.String("event", event),
			zap.String("userId", in.UserID),
			zap.String("type", string(in.Type)),
			zap.String("scope", string(in.Scope)),
			zap.Error(err))
		return false
	}
	l.logger.Debug("Notification queued for event",
		zap.String("event", event),
		zap.String("notificationId", n.ID))
	return true
}

// notifyPair sends the same content by email and in-app.
func (l *Listener) notifyPair(ctx context.Context, event, userID, email string, scope models.NotificationScope, subject, message string, data map[string]any) int {
	sent := 0
	if l.notify(ctx, event, models.CreateNotificationInput{
		Type:      models.NotificationTypeEmail,
		Scope:     scope,
		UserID:    userID,
		Recipient: email,
		Subject:   subject,
		Message:   message,
		Data:      data,
	}) {
		sent++
	}
	if l.notify(ctx, event, models.CreateNotificationInput{
		Type:    models.NotificationTypeSystem,
		Scope:   scope,
		UserID:  userID,
		Subject: subject,
		Message: message,
		Data:    data,
	}) {
		sent++
	}
	return sent
}

func formatAmount(amount float64, currency string) string {
	return fmt.Sprintf("%.2f %s", amount, currency)
}
