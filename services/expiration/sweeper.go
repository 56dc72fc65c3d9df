package expiration

import (
	"context"
	"errors"
	"fmt"
	"time"

	licenseRepo "deployhub/database/repository/license"
	userRepo "deployhub/database/repository/user"
	"deployhub/models"

	"go.uber.org/zap"
)

// WarningThresholds are the day counts before expiration at which owners are warned.
var WarningThresholds = []int{7, 1}

// Creator is the part of the notification service the sweeper needs.
type Creator interface {
	Create(ctx context.Context, in models.CreateNotificationInput) (*models.Notification, error)
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Candidates  int `json:"candidates"`
	Deactivated int `json:"deactivated"`
	Notified    int `json:"notified"`
	Skipped     int `json:"skipped"`
	Failed      int `json:"failed"`
}

type Sweeper struct {
	licenses      licenseRepo.LicenseRepository
	users         userRepo.UserRepository
	notifications Creator
	logger        *zap.Logger
	loc           *time.Location
	now           func() time.Time
}

func NewSweeper(
	licenses licenseRepo.LicenseRepository,
	users userRepo.UserRepository,
	notifications Creator,
	loc *time.Location,
	logger *zap.Logger,
) (*Sweeper, error) {
	if licenses == nil || users == nil || notifications == nil {
		return nil, fmt.Errorf("expiration sweeper initialization error: one or more dependencies are nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		licenses:      licenses,
		users:         users,
		notifications: notifications,
		logger:        logger,
		loc:           loc,
		now:           time.Now,
	}, nil
}

// dayWindow returns [midnight(now+days), midnight(now+days+1)) in the sweeper's location.
func (s *Sweeper) dayWindow(days int) (time.Time, time.Time) {
	y, m, d := s.now().In(s.loc).Date()
	start := time.Date(y, m, d+days, 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

// RunWarningSweeps runs the warning sweep for every threshold. A failing threshold does not stop the next.
func (s *Sweeper) RunWarningSweeps(ctx context.Context) {
	for _, days := range WarningThresholds {
		report, err := s.RunWarningSweep(ctx, days)
		if err != nil {
			s.logger.Error("License warning sweep failed", zap.Int("days", days), zap.Error(err))
			continue
		}
		s.logger.Info("License warning sweep finished", zap.Int("days", days), zap.Any("report", report))
	}
}

// RunWarningSweep warns owners of active licenses that expire on the day `days` from now.
func (s *Sweeper) RunWarningSweep(ctx context.Context, days int) (SweepReport, error) {
	var report SweepReport
	from, to := s.dayWindow(days)

	licenses, err := s.licenses.ActiveExpiringBetween(ctx, from, to)
	if err != nil {
		return report, fmt.Errorf("failed to query licenses expiring in %d days: %w", days, err)
	}
	report.Candidates = len(licenses)

	for i := range licenses {
		l := &licenses[i]
		owner, option, ok := s.relations(ctx, l)
		if !ok {
			report.Skipped++
			continue
		}

		subject, message := warningText(days, option)
		data := licenseData(l, option)
		data["daysLeft"] = days

		sent := s.notifyPair(ctx, owner, subject, message, data)
		report.Notified += sent
		report.Failed += 2 - sent
	}
	return report, nil
}

// RunExpirationSweep deactivates active licenses that are past their expiration and notifies the owners.
// Deactivation is persisted before any notification is attempted.
func (s *Sweeper) RunExpirationSweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	now := s.now()

	licenses, err := s.licenses.ActiveExpiredBefore(ctx, now)
	if err != nil {
		return report, fmt.Errorf("failed to query expired licenses: %w", err)
	}
	report.Candidates = len(licenses)

	for i := range licenses {
		l := &licenses[i]
		log := s.logger.With(zap.String("licenseId", l.ID), zap.String("userId", l.UserID))

		l.Active = false
		if err := s.licenses.Update(ctx, l); err != nil {
			log.Error("Failed to deactivate expired license", zap.Error(err))
			report.Failed++
			continue
		}
		report.Deactivated++

		owner, option, ok := s.relations(ctx, l)
		if !ok {
			report.Skipped++
			continue
		}

		subject := "Your license has expired"
		message := fmt.Sprintf("Your %s license for %s has expired. Renew it to restore access.", option.Name, option.ProjectName)
		sent := s.notifyPair(ctx, owner, subject, message, licenseData(l, option))
		report.Notified += sent
		report.Failed += 2 - sent
	}

	s.logger.Info("License expiration sweep finished", zap.Any("report", report))
	return report, nil
}

// relations loads the owner and license option. Missing data is logged and reported as not ok.
func (s *Sweeper) relations(ctx context.Context, l *models.UserLicense) (*models.User, *models.LicenseOption, bool) {
	log := s.logger.With(zap.String("licenseId", l.ID), zap.String("userId", l.UserID))

	owner, err := s.users.GetByID(ctx, l.UserID)
	if err != nil {
		if errors.Is(err, userRepo.ErrNotFound) {
			log.Warn("License owner not found, skipping")
		} else {
			log.Error("Failed to load license owner, skipping", zap.Error(err))
		}
		return nil, nil, false
	}

	option, err := s.licenses.GetOption(ctx, l.LicenseOptionID)
	if err != nil {
		if errors.Is(err, licenseRepo.ErrOptionNotFound) {
			log.Warn("License option not found, skipping", zap.String("licenseOptionId", l.LicenseOptionID))
		} else {
			log.Error("Failed to load license option, skipping", zap.Error(err))
		}
		return nil, nil, false
	}
	return owner, option, true
}

// notifyPair sends an EMAIL and a SYSTEM notification and returns how many were created.
func (s *Sweeper) notifyPair(ctx context.Context, owner *models.User, subject, message string, data map[string]any) int {
	sent := 0
	for _, in := range []models.CreateNotificationInput{
		{Type: models.NotificationTypeEmail, Recipient: owner.Email},
		{Type: models.NotificationTypeSystem},
	} {
		in.Scope = models.ScopeLicenses
		in.UserID = owner.ID
		in.Subject = subject
		in.Message = message
		in.Data = data

		if _, err := s.notifications.Create(ctx, in); err != nil {
			s.logger.Error("Failed to create license notification",
				zap.String("userId", owner.ID),
				zap.String("type", string(in.Type)),
				zap.Error(err))
			continue
		}
		sent++
	}
	return sent
}

func warningText(days int, option *models.LicenseOption) (string, string) {
	if days == 1 {
		return "Your license expires tomorrow",
			fmt.Sprintf("Your %s license for %s expires tomorrow. Renew now to avoid losing access.", option.Name, option.ProjectName)
	}
	return fmt.Sprintf("Your license expires in %d days", days),
		fmt.Sprintf("Your %s license for %s expires in %d days.", option.Name, option.ProjectName, days)
}

func licenseData(l *models.UserLicense, option *models.LicenseOption) map[string]any {
	data := map[string]any{
		"licenseId":       l.ID,
		"licenseOptionId": option.ID,
		"licenseName":     option.Name,
		"projectId":       option.ProjectID,
		"projectName":     option.ProjectName,
	}
	if l.ExpiresAt != nil {
		data["expiresAt"] = *l.ExpiresAt
	}
	return data
}
