package listener

import (
	"context"
	"errors"
	"testing"

	notificationRepo "deployhub/database/repository/notification"
	"deployhub/models"
	"deployhub/services/events"
	"deployhub/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

type nopQueue struct{}

func (nopQueue) Enqueue(ctx context.Context, id string) error { return nil }

// flakyCreator fails the calls whose index is listed in failAt.
type flakyCreator struct {
	next   Creator
	calls  int
	failAt map[int]bool
}

func (f *flakyCreator) Create(ctx context.Context, in models.CreateNotificationInput) (*models.Notification, error) {
	i := f.calls
	f.calls++
	if f.failAt[i] {
		return nil, errors.New("store unavailable")
	}
	return f.next.Create(ctx, in)
}

func newTestListener(t *testing.T, logger *zap.Logger) (*Listener, *notificationRepo.MemoryNotificationRepo, *events.Bus) {
	t.Helper()
	repo := notificationRepo.NewMemoryNotificationRepo()
	svc, err := notification.NewDefaultNotificationService(repo, nopQueue{}, nil)
	require.NoError(t, err)
	l, err := NewListener(svc, logger)
	require.NoError(t, err)
	bus := events.NewBus(logger)
	l.Register(bus)
	return l, repo, bus
}

type key struct {
	user  string
	typ   models.NotificationType
	scope models.NotificationScope
}

func keys(all []models.Notification) []key {
	out := make([]key, 0, len(all))
	for _, n := range all {
		out = append(out, key{n.UserID, n.Type, n.Scope})
	}
	return out
}

func TestOrderCompleted_NotifiesBuyerAndOwner(t *testing.T) {
	_, repo, bus := newTestListener(t, nil)

	bus.Emit(context.Background(), models.EventOrderCompleted, models.OrderCompletedEvent{
		OrderID:           "o-1",
		BuyerID:           "B",
		BuyerEmail:        "buyer@example.com",
		LicenseOwnerID:    "O",
		LicenseOwnerEmail: "owner@example.com",
		ProjectName:       "Atlas",
		LicenseName:       "Pro",
		Amount:            50,
		Currency:          "USD",
	})

	all := repo.All()
	require.Len(t, all, 4)
	assert.ElementsMatch(t, []key{
		{"B", models.NotificationTypeEmail, models.ScopeOrder},
		{"B", models.NotificationTypeSystem, models.ScopeOrder},
		{"O", models.NotificationTypeEmail, models.ScopeSale},
		{"O", models.NotificationTypeSystem, models.ScopeSale},
	}, keys(all))

	for _, n := range all {
		assert.Equal(t, models.StatusPending, n.Status)
		assert.Equal(t, 50.0, n.Data["amount"])
		switch {
		case n.Type == models.NotificationTypeEmail && n.UserID == "B":
			assert.Equal(t, "buyer@example.com", n.Recipient)
			assert.Equal(t, notification.TemplateOrder, n.Template)
		case n.Type == models.NotificationTypeEmail && n.UserID == "O":
			assert.Equal(t, "owner@example.com", n.Recipient)
			assert.Equal(t, notification.TemplateSale, n.Template)
			assert.Equal(t, "buyer@example.com", n.Data["buyerEmail"])
		case n.Type == models.NotificationTypeSystem:
			assert.Empty(t, n.Recipient)
		}
	}
}

func TestOrderCompleted_AcceptsPointerPayload(t *testing.T) {
	_, repo, bus := newTestListener(t, nil)
	bus.Emit(context.Background(), models.EventOrderCompleted, &models.OrderCompletedEvent{BuyerID: "B", LicenseOwnerID: "O"})
	assert.Equal(t, 4, repo.Len())
}

func TestEvents_ProduceExpectedNotifications(t *testing.T) {
	tests := []struct {
		event   string
		payload any
		want    []key
	}{
		{models.EventOrderCreated, models.OrderCreatedEvent{BuyerID: "u"}, []key{
			{"u", models.NotificationTypeEmail, models.ScopeOrder},
			{"u", models.NotificationTypeSystem, models.ScopeOrder},
		}},
		{models.EventPaymentFailed, models.PaymentFailedEvent{BuyerID: "u"}, []key{
			{"u", models.NotificationTypeEmail, models.ScopePayment},
			{"u", models.NotificationTypeSystem, models.ScopePayment},
		}},
		{models.EventDeploymentStarted, models.DeploymentStartedEvent{UserID: "u"}, []key{
			{"u", models.NotificationTypeSystem, models.ScopeDeployment},
		}},
		{models.EventDeploymentCompleted, models.DeploymentCompletedEvent{UserID: "u"}, []key{
			{"u", models.NotificationTypeEmail, models.ScopeDeployment},
			{"u", models.NotificationTypeSystem, models.ScopeDeployment},
		}},
		{models.EventDeploymentFailed, models.DeploymentFailedEvent{UserID: "u", Reason: "build error"}, []key{
			{"u", models.NotificationTypeEmail, models.ScopeDeployment},
			{"u", models.NotificationTypeSystem, models.ScopeDeployment},
		}},
		{models.EventProjectApproved, models.ProjectApprovedEvent{OwnerID: "u"}, []key{
			{"u", models.NotificationTypeEmail, models.ScopeProjects},
			{"u", models.NotificationTypeSystem, models.ScopeProjects},
		}},
		{models.EventProjectRejected, models.ProjectRejectedEvent{OwnerID: "u"}, []key{
			{"u", models.NotificationTypeEmail, models.ScopeProjects},
			{"u", models.NotificationTypeSystem, models.ScopeProjects},
		}},
		{models.EventUserCreated, models.UserCreatedEvent{UserID: "u", Email: "u@x.y"}, []key{
			{"u", models.NotificationTypeEmail, models.ScopeWelcome},
			{"u", models.NotificationTypeSystem, models.ScopeWelcome},
		}},
		{models.EventUserPasswordChanged, models.PasswordChangedEvent{UserID: "u"}, []key{
			{"u", models.NotificationTypeEmail, models.ScopeAccount},
			{"u", models.NotificationTypeSystem, models.ScopeAccount},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			_, repo, bus := newTestListener(t, nil)
			bus.Emit(context.Background(), tt.event, tt.payload)
			assert.ElementsMatch(t, tt.want, keys(repo.All()))
		})
	}
}

func TestListener_FailedCreateDoesNotSkipSiblings(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	repo := notificationRepo.NewMemoryNotificationRepo()
	svc, err := notification.NewDefaultNotificationService(repo, nopQueue{}, nil)
	require.NoError(t, err)

	creator := &flakyCreator{next: svc, failAt: map[int]bool{0: true}}
	l, err := NewListener(creator, zap.New(core))
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		l.OrderCompleted(context.Background(), models.OrderCompletedEvent{BuyerID: "B", LicenseOwnerID: "O"})
	})

	assert.Equal(t, 4, creator.calls)
	assert.Equal(t, 3, repo.Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to create notification for event").Len())
}

func TestListener_WrongPayloadIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	_, repo, bus := newTestListener(t, zap.New(core))

	bus.Emit(context.Background(), models.EventUserCreated, "not an event")
	assert.Zero(t, repo.Len())
	assert.Equal(t, 1, logs.FilterMessage("Event handler failed").Len())
}

func TestRegister_SubscribesAllEvents(t *testing.T) {
	_, _, bus := newTestListener(t, nil)
	for _, e := range []string{
		models.EventOrderCreated, models.EventOrderCompleted, models.EventPaymentFailed,
		models.EventDeploymentStarted, models.EventDeploymentCompleted, models.EventDeploymentFailed,
		models.EventProjectApproved, models.EventProjectRejected,
		models.EventUserCreated, models.EventUserPasswordChanged,
	} {
		assert.Equal(t, 1, bus.HandlerCount(e), e)
	}
}
