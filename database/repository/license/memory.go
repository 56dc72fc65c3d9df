package licenseRepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"deployhub/models"
)

// MemoryLicenseRepo is an in-memory LicenseRepository for development and tests.
type MemoryLicenseRepo struct {
	mu       sync.RWMutex
	licenses map[string]models.UserLicense
	options  map[string]models.LicenseOption
}

func NewMemoryLicenseRepo() *MemoryLicenseRepo {
	return &MemoryLicenseRepo{
		licenses: make(map[string]models.UserLicense),
		options:  make(map[string]models.LicenseOption),
	}
}

func (r *MemoryLicenseRepo) Create(ctx context.Context, l *models.UserLicense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	l.CreatedAt = now
	l.UpdatedAt = now
	r.licenses[l.ID] = *l
	return nil
}

func (r *MemoryLicenseRepo) Update(ctx context.Context, l *models.UserLicense) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.licenses[l.ID]; !ok {
		return ErrLicenseNotFound
	}
	l.UpdatedAt = time.Now()
	r.licenses[l.ID] = *l
	return nil
}

func (r *MemoryLicenseRepo) ActiveExpiringBetween(ctx context.Context, from, to time.Time) ([]models.UserLicense, error) {
	return r.filter(func(l models.UserLicense) bool {
		return !l.ExpiresAt.Before(from) && l.ExpiresAt.Before(to)
	}), nil
}

func (r *MemoryLicenseRepo) ActiveExpiredBefore(ctx context.Context, t time.Time) ([]models.UserLicense, error) {
	return r.filter(func(l models.UserLicense) bool {
		return l.ExpiresAt.Before(t)
	}), nil
}

// filter applies keep to active licenses that carry an expiration date.
func (r *MemoryLicenseRepo) filter(keep func(models.UserLicense) bool) []models.UserLicense {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.UserLicense
	for _, l := range r.licenses {
		if l.Active && l.ExpiresAt != nil && keep(l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *MemoryLicenseRepo) CreateOption(ctx context.Context, o *models.LicenseOption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.options[o.ID] = *o
	return nil
}

func (r *MemoryLicenseRepo) GetOption(ctx context.Context, id string) (*models.LicenseOption, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.options[id]
	if !ok {
		return nil, ErrOptionNotFound
	}
	return &o, nil
}

// Get returns a stored license; used to inspect state in tests.
func (r *MemoryLicenseRepo) Get(id string) (models.UserLicense, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	l, ok := r.licenses[id]
	return l, ok
}
