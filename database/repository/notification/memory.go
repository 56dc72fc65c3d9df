package notificationRepo

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"deployhub/models"
)

// MemoryNotificationRepo is an in-memory NotificationRepository for development and tests.
type MemoryNotificationRepo struct {
	mu    sync.RWMutex
	items map[string]models.Notification
}

func NewMemoryNotificationRepo() *MemoryNotificationRepo {
	return &MemoryNotificationRepo{items: make(map[string]models.Notification)}
}

func (r *MemoryNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if n.ID == "" {
		return fmt.Errorf("failed to create notification: id is required")
	}
	if _, exists := r.items[n.ID]; exists {
		return fmt.Errorf("failed to create notification: duplicate id %s", n.ID)
	}
	r.items[n.ID] = clone(*n)
	return nil
}

func (r *MemoryNotificationRepo) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	c := clone(n)
	return &c, nil
}

func (r *MemoryNotificationRepo) Find(ctx context.Context, f models.NotificationFilter) ([]models.Notification, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.Notification
	for _, n := range r.items {
		if matches(&n, f) {
			matched = append(matched, clone(n))
		}
	}

	field, desc := sortSpec(f)
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := sortValue(&matched[i], field), sortValue(&matched[j], field)
		if a == b {
			return matched[i].ID < matched[j].ID
		}
		if desc {
			return a > b
		}
		return a < b
	})

	total := int64(len(matched))
	page, limit := models.NormalizePage(f.Page, f.Limit)
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Notification{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *MemoryNotificationRepo) Update(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[n.ID]; !ok {
		return ErrNotFound
	}
	r.items[n.ID] = clone(*n)
	return nil
}

func (r *MemoryNotificationRepo) UpdateStatus(ctx context.Context, n *models.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.items[n.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Status = n.Status
	stored.Error = n.Error
	stored.ProcessedAt = n.ProcessedAt
	stored.UpdatedAt = n.UpdatedAt
	r.items[n.ID] = clone(stored)
	return nil
}

func (r *MemoryNotificationRepo) MarkAllRead(ctx context.Context, userID string, types []models.NotificationType, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var affected int64
	for id, n := range r.items {
		if n.UserID != userID || n.Read {
			continue
		}
		if len(types) > 0 && !hasType(types, n.Type) {
			continue
		}
		readAt := at
		n.Read = true
		n.ReadAt = &readAt
		n.UpdatedAt = at
		r.items[id] = n
		affected++
	}
	return affected, nil
}

func (r *MemoryNotificationRepo) CountUnread(ctx context.Context, userID string, types []models.NotificationType) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, n := range r.items {
		if n.UserID != userID || n.Read {
			continue
		}
		if len(types) > 0 && !hasType(types, n.Type) {
			continue
		}
		count++
	}
	return count, nil
}

func (r *MemoryNotificationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return ErrNotFound
	}
	delete(r.items, id)
	return nil
}

// Len returns the number of stored notifications.
func (r *MemoryNotificationRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// All returns every stored notification ordered by creation time.
func (r *MemoryNotificationRepo) All() []models.Notification {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]models.Notification, 0, len(r.items))
	for _, n := range r.items {
		out = append(out, clone(n))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func clone(n models.Notification) models.Notification {
	n.Data = maps.Clone(n.Data)
	return n
}

// sortValue renders a sortable field as a string that orders the same way as the field.
func sortValue(n *models.Notification, field string) string {
	switch field {
	case "status":
		return string(n.Status)
	case "type":
		return string(n.Type)
	case "updatedAt":
		return timeKey(&n.UpdatedAt)
	case "processedAt":
		return timeKey(n.ProcessedAt)
	case "readAt":
		return timeKey(n.ReadAt)
	default:
		return timeKey(&n.CreatedAt)
	}
}

func timeKey(t *time.Time) string {
	if t == nil {
		return ""
	}
	return fmt.Sprintf("%020d", t.UnixNano())
}
