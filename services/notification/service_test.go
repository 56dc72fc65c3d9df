package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	notificationRepo "deployhub/database/repository/notification"
	"deployhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingQueue struct {
	mu  sync.Mutex
	ids []string
	err error
}

func (q *recordingQueue) Enqueue(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.ids = append(q.ids, id)
	return nil
}

func newTestService(t *testing.T) (*DefaultNotificationService, *notificationRepo.MemoryNotificationRepo, *recordingQueue) {
	t.Helper()
	repo := notificationRepo.NewMemoryNotificationRepo()
	queue := &recordingQueue{}
	svc, err := NewDefaultNotificationService(repo, queue, zap.NewNop())
	require.NoError(t, err)
	return svc, repo, queue
}

func TestNewDefaultNotificationService_NilDeps(t *testing.T) {
	_, err := NewDefaultNotificationService(nil, &recordingQueue{}, nil)
	assert.Error(t, err)

	_, err = NewDefaultNotificationService(notificationRepo.NewMemoryNotificationRepo(), nil, nil)
	assert.Error(t, err)
}

func TestCreate_PersistsPendingAndEnqueuesOnce(t *testing.T) {
	svc, repo, queue := newTestService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, models.CreateNotificationInput{
		Type:      models.NotificationTypeEmail,
		Scope:     models.ScopeOrder,
		UserID:    "user-1",
		Recipient: " buyer@example.com ",
		Subject:   "Order received",
		Message:   "We got your order",
		Data:      map[string]any{"orderId": "o-1"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, n.ID)
	assert.Equal(t, models.StatusPending, n.Status)
	assert.Equal(t, TemplateOrder, n.Template)
	assert.Equal(t, "buyer@example.com", n.Recipient)
	assert.Equal(t, []string{n.ID}, queue.ids)
	assert.Equal(t, 1, repo.Len())

	got, err := svc.FindOne(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, n, got)
}

func TestCreate_TemplateDefaultsFromScope(t *testing.T) {
	for scope, template := range scopeTemplates {
		t.Run(string(scope), func(t *testing.T) {
			svc, _, _ := newTestService(t)
			n, err := svc.Create(context.Background(), models.CreateNotificationInput{
				Type:    models.NotificationTypeSystem,
				Scope:   scope,
				UserID:  "u",
				Message: "hello",
			})
			require.NoError(t, err)
			assert.Equal(t, template, n.Template)
		})
	}
}

func TestCreate_ExplicitTemplateWins(t *testing.T) {
	svc, _, _ := newTestService(t)
	n, err := svc.Create(context.Background(), models.CreateNotificationInput{
		Type:     models.NotificationTypeEmail,
		Scope:    models.ScopeOrder,
		UserID:   "u",
		Message:  "hello",
		Template: "custom",
	})
	require.NoError(t, err)
	assert.Equal(t, "custom", n.Template)
}

func TestCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		in    models.CreateNotificationInput
		field string
	}{
		{"unknown type", models.CreateNotificationInput{Type: "FAX", UserID: "u", Message: "m"}, "type"},
		{"missing user", models.CreateNotificationInput{Type: models.NotificationTypeSMS, Message: "m"}, "userId"},
		{"blank message", models.CreateNotificationInput{Type: models.NotificationTypeSMS, UserID: "u", Message: "  "}, "message"},
		{"unknown scope", models.CreateNotificationInput{Type: models.NotificationTypeSMS, UserID: "u", Message: "m", Scope: "MISC"}, "scope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, queue := newTestService(t)
			_, err := svc.Create(context.Background(), tt.in)

			var verr ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, repo.Len())
			assert.Empty(t, queue.ids)
		})
	}
}

func TestCreate_EnqueueFailureLeavesPendingRecord(t *testing.T) {
	svc, repo, queue := newTestService(t)
	queue.err = errors.New("redis down")

	_, err := svc.Create(context.Background(), models.CreateNotificationInput{
		Type: models.NotificationTypeSystem, UserID: "u", Message: "m",
	})
	require.Error(t, err)

	all := repo.All()
	require.Len(t, all, 1)
	assert.Equal(t, models.StatusPending, all[0].Status)
}

func TestUpdate_ReadStampsReadAtOnce(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, models.CreateNotificationInput{Type: models.NotificationTypeSystem, UserID: "u", Message: "m"})
	require.NoError(t, err)

	before := time.Now()
	first, err := svc.MarkAsRead(ctx, n.ID)
	require.NoError(t, err)
	require.True(t, first.Read)
	require.NotNil(t, first.ReadAt)
	assert.False(t, first.ReadAt.Before(before))

	svc.now = func() time.Time { return before.Add(time.Hour) }
	second, err := svc.MarkAsRead(ctx, n.ID)
	require.NoError(t, err)
	assert.Equal(t, *first.ReadAt, *second.ReadAt)

	unread := false
	cleared, err := svc.Update(ctx, n.ID, models.UpdateNotificationInput{Read: &unread})
	require.NoError(t, err)
	assert.False(t, cleared.Read)
	assert.Nil(t, cleared.ReadAt)
}

func TestUpdate_MergesFields(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, models.CreateNotificationInput{
		Type: models.NotificationTypeEmail, UserID: "u", Message: "m", Subject: "s", Recipient: "a@b.c",
	})
	require.NoError(t, err)

	msg := "updated"
	status := models.StatusFailed
	got, err := svc.Update(ctx, n.ID, models.UpdateNotificationInput{Message: &msg, Status: &status})
	require.NoError(t, err)

	assert.Equal(t, "updated", got.Message)
	assert.Equal(t, "s", got.Subject)
	assert.Equal(t, "a@b.c", got.Recipient)
	assert.Equal(t, models.StatusFailed, got.Status)

	bad := models.NotificationStatus("lost")
	_, err = svc.Update(ctx, n.ID, models.UpdateNotificationInput{Status: &bad})
	assert.True(t, IsValidationError(err))
}

func TestNotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.FindOne(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.MarkAsRead(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Remove(ctx, "missing"), ErrNotFound)
}

func TestRemove(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	n, err := svc.Create(ctx, models.CreateNotificationInput{Type: models.NotificationTypeSystem, UserID: "u", Message: "m"})
	require.NoError(t, err)

	require.NoError(t, svc.Remove(ctx, n.ID))
	assert.Zero(t, repo.Len())
}

func TestMarkAllAsReadAndCountUnread(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	create := func(user string, typ models.NotificationType) *models.Notification {
		n, err := svc.Create(ctx, models.CreateNotificationInput{Type: typ, UserID: user, Message: "m"})
		require.NoError(t, err)
		return n
	}
	create("u1", models.NotificationTypeEmail)
	create("u1", models.NotificationTypeSystem)
	read := create("u1", models.NotificationTypeSystem)
	create("u2", models.NotificationTypeSystem)

	_, err := svc.MarkAsRead(ctx, read.ID)
	require.NoError(t, err)

	count, err := svc.CountUnread(ctx, "u1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	affected, err := svc.MarkAllAsRead(ctx, "u1", []models.NotificationType{models.NotificationTypeSystem})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	count, err = svc.CountUnread(ctx, "u1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	count, err = svc.CountUnread(ctx, "u2", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	_, err = svc.CountUnread(ctx, "", nil)
	assert.True(t, IsValidationError(err))
}

func TestFindAll_PageMeta(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, models.CreateNotificationInput{Type: models.NotificationTypeSystem, UserID: "u", Message: "m"})
		require.NoError(t, err)
	}

	page, err := svc.FindAll(ctx, models.NotificationFilter{UserID: "u", Page: 2, Limit: 2})
	require.NoError(t, err)

	assert.Len(t, page.Items, 2)
	assert.Equal(t, models.PageMeta{TotalItems: 5, ItemCount: 2, ItemsPerPage: 2, TotalPages: 3, CurrentPage: 2}, page.Meta)

	empty, err := svc.FindAll(ctx, models.NotificationFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.NotNil(t, empty.Items)
	assert.Equal(t, models.DefaultPageLimit, empty.Meta.ItemsPerPage)

	_, err = svc.FindAll(ctx, models.NotificationFilter{SortOrder: "sideways"})
	assert.True(t, IsValidationError(err))
}
