package usertokenRepo

import (
	"context"
	"slices"
	"sync"
	"time"

	"deployhub/models"
)

// MemoryUserTokenRepo is an in-memory UserTokenRepository for development and tests.
type MemoryUserTokenRepo struct {
	mu    sync.RWMutex
	items map[string]models.UserToken
}

func NewMemoryUserTokenRepo() *MemoryUserTokenRepo {
	return &MemoryUserTokenRepo{items: make(map[string]models.UserToken)}
}

func (r *MemoryUserTokenRepo) Get(ctx context.Context, userID string) (*models.UserToken, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[userID]
	if !ok {
		return nil, ErrNotFound
	}
	c := cloneToken(t)
	return &c, nil
}

func (r *MemoryUserTokenRepo) AddToken(ctx context.Context, userID string, req models.RegisterTokenRequest, now time.Time) (*models.UserToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[userID]
	if !ok {
		t = models.UserToken{UserID: userID, Type: models.NotificationTypeSystem, CreatedAt: now}
	}
	t = cloneToken(t)
	t.AddToken(req, now)
	t.UpdatedAt = now
	r.items[userID] = t

	c := cloneToken(t)
	return &c, nil
}

func (r *MemoryUserTokenRepo) RemoveTokens(ctx context.Context, userID string, tokens []string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[userID]
	if !ok {
		return 0, ErrNotFound
	}
	t = cloneToken(t)
	removed := t.RemoveTokens(tokens...)
	if removed > 0 {
		t.UpdatedAt = now
		r.items[userID] = t
	}
	return removed, nil
}

func (r *MemoryUserTokenRepo) Delete(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[userID]; !ok {
		return ErrNotFound
	}
	delete(r.items, userID)
	return nil
}

func cloneToken(t models.UserToken) models.UserToken {
	t.Tokens = slices.Clone(t.Tokens)
	t.Devices = slices.Clone(t.Devices)
	return t
}
