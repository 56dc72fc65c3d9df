package notificationRepo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"deployhub/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func seed(t *testing.T, repo *MemoryNotificationRepo, base time.Time) {
	t.Helper()

	fixtures := []models.Notification{
		{ID: "n1", UserID: "u1", Type: models.NotificationTypeEmail, Message: "Your order shipped", Template: "order-notification", Status: models.StatusDelivered},
		{ID: "n2", UserID: "u1", Type: models.NotificationTypeSystem, Message: "Deployment finished", Template: "deployment-notification", Status: models.StatusPending},
		{ID: "n3", UserID: "u1", Type: models.NotificationTypeSMS, Message: "Payment failed", Status: models.StatusFailed, Error: "no recipient"},
		{ID: "n4", UserID: "u2", Type: models.NotificationTypeEmail, Message: "Welcome aboard", Template: "welcome", Status: models.StatusPending},
	}
	for i := range fixtures {
		fixtures[i].CreatedAt = base.Add(time.Duration(i) * time.Minute)
		fixtures[i].UpdatedAt = fixtures[i].CreatedAt
		require.NoError(t, repo.Create(context.Background(), &fixtures[i]))
	}
}

func ids(items []models.Notification) []string {
	out := make([]string, 0, len(items))
	for _, n := range items {
		out = append(out, n.ID)
	}
	return out
}

func TestMemoryNotificationRepo_Find(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	yes, no := true, false
	from := base.Add(90 * time.Second)

	tests := []struct {
		name   string
		filter models.NotificationFilter
		want   []string
		total  int64
	}{
		{name: "by user newest first", filter: models.NotificationFilter{UserID: "u1"}, want: []string{"n3", "n2", "n1"}, total: 3},
		{name: "ascending", filter: models.NotificationFilter{UserID: "u1", SortOrder: "asc"}, want: []string{"n1", "n2", "n3"}, total: 3},
		{name: "type set", filter: models.NotificationFilter{Types: []models.NotificationType{models.NotificationTypeEmail}}, want: []string{"n4", "n1"}, total: 2},
		{name: "search is case insensitive", filter: models.NotificationFilter{Search: "DEPLOY"}, want: []string{"n2"}, total: 1},
		{name: "has error", filter: models.NotificationFilter{HasError: &yes}, want: []string{"n3"}, total: 1},
		{name: "without error", filter: models.NotificationFilter{UserID: "u1", HasError: &no}, want: []string{"n2", "n1"}, total: 2},
		{name: "status", filter: models.NotificationFilter{Status: models.StatusPending}, want: []string{"n4", "n2"}, total: 2},
		{name: "template", filter: models.NotificationFilter{Template: "welcome"}, want: []string{"n4"}, total: 1},
		{name: "created from", filter: models.NotificationFilter{CreatedFrom: &from}, want: []string{"n4", "n3"}, total: 2},
		{name: "unread", filter: models.NotificationFilter{UserID: "u2", Read: &no}, want: []string{"n4"}, total: 1},
		{name: "processed range excludes unprocessed", filter: models.NotificationFilter{ProcessedFrom: &base}, want: []string{}, total: 0},
		{name: "pagination", filter: models.NotificationFilter{Page: 2, Limit: 2}, want: []string{"n2", "n1"}, total: 4},
		{name: "page past the end", filter: models.NotificationFilter{Page: 5, Limit: 2}, want: []string{}, total: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := NewMemoryNotificationRepo()
			seed(t, repo, base)

			items, total, err := repo.Find(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(items))
			assert.Equal(t, tt.total, total)
		})
	}
}

func TestMemoryNotificationRepo_MarkAllReadAndCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryNotificationRepo()
	seed(t, repo, time.Now())

	count, err := repo.CountUnread(ctx, "u1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	at := time.Now()
	affected, err := repo.MarkAllRead(ctx, "u1", []models.NotificationType{models.NotificationTypeSystem}, at)
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	n, err := repo.GetByID(ctx, "n2")
	require.NoError(t, err)
	assert.True(t, n.Read)
	require.NotNil(t, n.ReadAt)
	assert.True(t, n.ReadAt.Equal(at))

	count, err = repo.CountUnread(ctx, "u1", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	affected, err = repo.MarkAllRead(ctx, "u1", nil, at)
	require.NoError(t, err)
	assert.EqualValues(t, 2, affected)

	count, err = repo.CountUnread(ctx, "u2", nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMemoryNotificationRepo_NotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryNotificationRepo()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.Notification{ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, &models.Notification{ID: "missing"}), ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "missing"), ErrNotFound)
}

func TestMemoryNotificationRepo_ReturnsCopies(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryNotificationRepo()
	require.NoError(t, repo.Create(ctx, &models.Notification{ID: "n1", UserID: "u1", Data: map[string]any{"k": "v"}}))

	n, err := repo.GetByID(ctx, "n1")
	require.NoError(t, err)
	n.Data["k"] = "changed"
	n.Message = "changed"

	again, err := repo.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, "v", again.Data["k"])
	assert.Empty(t, again.Message)
}

func TestBuildFilter(t *testing.T) {
	t.Parallel()

	yes := true
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	got := buildFilter(models.NotificationFilter{
		UserID:      "u1",
		Types:       []models.NotificationType{models.NotificationTypeEmail, models.NotificationTypeSMS},
		Read:        &yes,
		Search:      "a.b",
		HasError:    &yes,
		CreatedFrom: &from,
		CreatedTo:   &to,
	})

	assert.Equal(t, "u1", got["userId"])
	assert.Equal(t, true, got["read"])
	assert.Equal(t, bson.M{"$in": []models.NotificationType{models.NotificationTypeEmail, models.NotificationTypeSMS}}, got["type"])
	assert.Equal(t, bson.M{"$regex": `a\.b`, "$options": "i"}, got["message"])
	assert.Equal(t, bson.M{"$exists": true, "$ne": ""}, got["error"])
	assert.Equal(t, bson.M{"$gte": from, "$lte": to}, got["createdAt"])
	assert.NotContains(t, got, "processedAt")
}

func TestSortSpec(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		sortBy, order string
		field         string
		desc          bool
	}{
		{"", "", "createdAt", true},
		{"status", "ASC", "status", false},
		{"$where", "desc", "createdAt", true},
	} {
		t.Run(fmt.Sprintf("%s_%s", tt.sortBy, tt.order), func(t *testing.T) {
			field, desc := sortSpec(models.NotificationFilter{SortBy: tt.sortBy, SortOrder: tt.order})
			assert.Equal(t, tt.field, field)
			assert.Equal(t, tt.desc, desc)
		})
	}
}

func TestMemoryNotificationRepo_UpdateStatusKeepsOtherFields(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := NewMemoryNotificationRepo()
	at := time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &models.Notification{ID: "n1", UserID: "u1", Message: "m", Read: true, ReadAt: &at}))

	stale := &models.Notification{ID: "n1", Status: models.StatusFailed, Error: "boom", ProcessedAt: &at, UpdatedAt: at}
	require.NoError(t, repo.UpdateStatus(ctx, stale))

	n, err := repo.GetByID(ctx, "n1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, n.Status)
	assert.Equal(t, "boom", n.Error)
	assert.Equal(t, "m", n.Message)
	assert.True(t, n.Read)
	assert.NotNil(t, n.ReadAt)
}
