package expiration

import (
	"context"
	"errors"
	"testing"
	"time"

	licenseRepo "deployhub/database/repository/license"
	notificationRepo "deployhub/database/repository/notification"
	userRepo "deployhub/database/repository/user"
	"deployhub/models"
	"deployhub/services/notification"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"go.uber.org/zap/zapcore"
)

type nopQueue struct{}

func (nopQueue) Enqueue(ctx context.Context, id string) error { return nil }

type failingCreator struct{ calls int }

func (f *failingCreator) Create(ctx context.Context, in models.CreateNotificationInput) (*models.Notification, error) {
	f.calls++
	return nil, errors.New("queue unavailable")
}

var fixedNow = time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

type fixture struct {
	sweeper  *Sweeper
	licenses *licenseRepo.MemoryLicenseRepo
	users    *userRepo.MemoryUserRepo
	notifs   *notificationRepo.MemoryNotificationRepo
}

func newFixture(t *testing.T, creator Creator, logger *zap.Logger) *fixture {
	t.Helper()
	f := &fixture{
		licenses: licenseRepo.NewMemoryLicenseRepo(),
		users:    userRepo.NewMemoryUserRepo(),
		notifs:   notificationRepo.NewMemoryNotificationRepo(),
	}
	if creator == nil {
		svc, err := notification.NewDefaultNotificationService(f.notifs, nopQueue{}, nil)
		require.NoError(t, err)
		creator = svc
	}
	var err error
	f.sweeper, err = NewSweeper(f.licenses, f.users, creator, time.UTC, logger)
	require.NoError(t, err)
	f.sweeper.now = func() time.Time { return fixedNow }

	ctx := context.Background()
	require.NoError(t, f.users.Create(ctx, &models.User{ID: "owner", Email: "owner@example.com", Username: "owner"}))
	require.NoError(t, f.licenses.CreateOption(ctx, &models.LicenseOption{ID: "opt", ProjectName: "Atlas", Name: "Pro"}))
	return f
}

func (f *fixture) addLicense(t *testing.T, id, userID, optionID string, expires time.Time, active bool) {
	t.Helper()
	require.NoError(t, f.licenses.Create(context.Background(), &models.UserLicense{
		ID: id, UserID: userID, LicenseOptionID: optionID, Active: active, ExpiresAt: &expires,
	}))
}

func TestWarningSweep_OneDay(t *testing.T) {
	f := newFixture(t, nil, nil)
	tomorrowNoon := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	f.addLicense(t, "lic-1", "owner", "opt", tomorrowNoon, true)
	f.addLicense(t, "lic-week", "owner", "opt", fixedNow.AddDate(0, 0, 7), true)
	f.addLicense(t, "lic-inactive", "owner", "opt", tomorrowNoon, false)

	report, err := f.sweeper.RunWarningSweep(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Candidates: 1, Notified: 2}, report)

	all := f.notifs.All()
	require.Len(t, all, 2)
	types := []models.NotificationType{all[0].Type, all[1].Type}
	assert.ElementsMatch(t, []models.NotificationType{models.NotificationTypeEmail, models.NotificationTypeSystem}, types)
	for _, n := range all {
		assert.Equal(t, models.ScopeLicenses, n.Scope)
		assert.Equal(t, "owner", n.UserID)
		assert.Contains(t, n.Message, "tomorrow")
		assert.Equal(t, 1, n.Data["daysLeft"])
	}

	lic, ok := f.licenses.Get("lic-1")
	require.True(t, ok)
	assert.True(t, lic.Active)
}

func TestWarningSweep_SevenDayWindowBoundaries(t *testing.T) {
	f := newFixture(t, nil, nil)
	start := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
	f.addLicense(t, "at-start", "owner", "opt", start, true)
	f.addLicense(t, "before-end", "owner", "opt", start.Add(24*time.Hour-time.Nanosecond), true)
	f.addLicense(t, "at-end", "owner", "opt", start.Add(24*time.Hour), true)
	f.addLicense(t, "before-start", "owner", "opt", start.Add(-time.Nanosecond), true)

	report, err := f.sweeper.RunWarningSweep(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, 4, f.notifs.Len())
	for _, n := range f.notifs.All() {
		assert.Contains(t, n.Message, "7 days")
	}
}

func TestWarningSweep_MissingRelationsAreSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	f := newFixture(t, nil, zap.New(core))
	tomorrow := fixedNow.Add(24 * time.Hour)
	f.addLicense(t, "no-owner", "ghost", "opt", tomorrow, true)
	f.addLicense(t, "no-option", "owner", "ghost-opt", tomorrow, true)
	f.addLicense(t, "ok", "owner", "opt", tomorrow, true)

	report, err := f.sweeper.RunWarningSweep(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, SweepReport{Candidates: 3, Notified: 2, Skipped: 2}, report)
	assert.Equal(t, 2, f.notifs.Len())
	assert.Equal(t, 1, logs.FilterMessage("License owner not found, skipping").Len())
	assert.Equal(t, 1, logs.FilterMessage("License option not found, skipping").Len())
}

func TestExpirationSweep_DeactivatesAndNotifies(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.addLicense(t, "expired", "owner", "opt", fixedNow.Add(-time.Hour), true)
	f.addLicense(t, "valid", "owner", "opt", fixedNow.Add(time.Hour), true)

	report, err := f.sweeper.RunExpirationSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Candidates: 1, Deactivated: 1, Notified: 2}, report)

	expired, _ := f.licenses.Get("expired")
	assert.False(t, expired.Active)
	valid, _ := f.licenses.Get("valid")
	assert.True(t, valid.Active)

	all := f.notifs.All()
	require.Len(t, all, 2)
	for _, n := range all {
		assert.Equal(t, models.ScopeLicenses, n.Scope)
		assert.Contains(t, n.Message, "expired")
	}
}

func TestExpirationSweep_DeactivationSurvivesNotificationFailure(t *testing.T) {
	creator := &failingCreator{}
	f := newFixture(t, creator, nil)
	f.addLicense(t, "a", "owner", "opt", fixedNow.Add(-48*time.Hour), true)
	f.addLicense(t, "b", "owner", "opt", fixedNow.Add(-time.Minute), true)

	report, err := f.sweeper.RunExpirationSweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Deactivated)
	assert.Equal(t, 4, report.Failed)
	assert.Equal(t, 4, creator.calls)
	for _, id := range []string{"a", "b"} {
		l, ok := f.licenses.Get(id)
		require.True(t, ok)
		assert.False(t, l.Active, id)
	}
}

func TestExpirationSweep_MissingOwnerStillDeactivates(t *testing.T) {
	f := newFixture(t, nil, nil)
	f.addLicense(t, "orphan", "ghost", "opt", fixedNow.Add(-time.Hour), true)

	report, err := f.sweeper.RunExpirationSweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepReport{Candidates: 1, Deactivated: 1, Skipped: 1}, report)

	l, _ := f.licenses.Get("orphan")
	assert.False(t, l.Active)
	assert.Zero(t, f.notifs.Len())
}

func TestDayWindowUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	s, err := NewSweeper(licenseRepo.NewMemoryLicenseRepo(), userRepo.NewMemoryUserRepo(), &failingCreator{}, loc, nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, time.March, 3, 22, 30, 0, 0, time.UTC) }

	from, to := s.dayWindow(1)
	assert.Equal(t, time.Date(2026, time.March, 5, 0, 0, 0, 0, loc), from)
	assert.Equal(t, 24*time.Hour, to.Sub(from))
}
