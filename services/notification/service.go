package notification

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	notificationRepo "deployhub/database/repository/notification"
	"deployhub/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JobQueue defers delivery of a persisted notification to the worker.
type JobQueue interface {
	Enqueue(ctx context.Context, notificationID string) error
}

type NotificationService interface {
	Create(ctx context.Context, in models.CreateNotificationInput) (*models.Notification, error)
	FindAll(ctx context.Context, filter models.NotificationFilter) (*models.NotificationPage, error)
	FindOne(ctx context.Context, id string) (*models.Notification, error)
	Update(ctx context.Context, id string, in models.UpdateNotificationInput) (*models.Notification, error)
	MarkAsRead(ctx context.Context, id string) (*models.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string, types []models.NotificationType) (int64, error)
	CountUnread(ctx context.Context, userID string, types []models.NotificationType) (int64, error)
	Remove(ctx context.Context, id string) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	repo   notificationRepo.NotificationRepository
	queue  JobQueue
	logger *zap.Logger
	now    func() time.Time
}

func NewDefaultNotificationService(
	repo notificationRepo.NotificationRepository,
	queue JobQueue,
	logger *zap.Logger,
) (*DefaultNotificationService, error) {
	if repo == nil || queue == nil {
		return nil, fmt.Errorf("notification service initialization error: repository or queue is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DefaultNotificationService{
		repo:   repo,
		queue:  queue,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Create persists a pending notification and enqueues exactly one delivery job for it.
func (s *DefaultNotificationService) Create(ctx context.Context, in models.CreateNotificationInput) (*models.Notification, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	template := in.Template
	if template == "" && in.Scope != "" {
		template = TemplateForScope(in.Scope)
	}

	now := s.now()
	n := &models.Notification{
		ID:        uuid.New().String(),
		Type:      in.Type,
		Scope:     in.Scope,
		UserID:    in.UserID,
		Recipient: strings.TrimSpace(in.Recipient),
		Subject:   in.Subject,
		Message:   in.Message,
		Template:  template,
		Data:      maps.Clone(in.Data),
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to persist notification: %w", err)
	}

	// The record stays pending without a job if enqueueing fails.
	if err := s.queue.Enqueue(ctx, n.ID); err != nil {
		s.logger.Error("Failed to enqueue notification delivery",
			zap.String("notificationId", n.ID),
			zap.String("type", string(n.Type)),
			zap.Error(err))
		return nil, fmt.Errorf("failed to enqueue notification %s: %w", n.ID, err)
	}

	s.logger.Debug("Notification created",
		zap.String("notificationId", n.ID),
		zap.String("userId", n.UserID),
		zap.String("type", string(n.Type)),
		zap.String("template", n.Template))
	return n, nil
}

func validateCreate(in models.CreateNotificationInput) error {
	if !in.Type.Valid() {
		return ValidationError{Field: "type", Message: fmt.Sprintf("unknown notification type %q", in.Type)}
	}
	if strings.TrimSpace(in.UserID) == "" {
		return ValidationError{Field: "userId", Message: "is required"}
	}
	if strings.TrimSpace(in.Message) == "" {
		return ValidationError{Field: "message", Message: "is required"}
	}
	if in.Scope != "" && TemplateForScope(in.Scope) == "" {
		return ValidationError{Field: "scope", Message: fmt.Sprintf("unknown scope %q", in.Scope)}
	}
	return nil
}

// FindAll returns one page of notifications plus pagination metadata.
func (s *DefaultNotificationService) FindAll(ctx context.Context, filter models.NotificationFilter) (*models.NotificationPage, error) {
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, ValidationError{Field: "types", Message: fmt.Sprintf("unknown notification type %q", t)}
		}
	}
	if order := strings.ToUpper(filter.SortOrder); order != "" && order != "ASC" && order != "DESC" {
		return nil, ValidationError{Field: "sortOrder", Message: "must be ASC or DESC"}
	}

	page, limit := models.NormalizePage(filter.Page, filter.Limit)
	filter.Page, filter.Limit = page, limit

	items, total, err := s.repo.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	if items == nil {
		items = []models.Notification{}
	}
	return &models.NotificationPage{
		Items: items,
		Meta:  models.NewPageMeta(total, len(items), page, limit),
	}, nil
}

func (s *DefaultNotificationService) FindOne(ctx context.Context, id string) (*models.Notification, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, notificationRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to fetch notification %s: %w", id, err)
	}
	return n, nil
}

// Update merges the provided fields into the stored notification.
// Setting read to true stamps readAt once; clearing it drops readAt.
func (s *DefaultNotificationService) Update(ctx context.Context, id string, in models.UpdateNotificationInput) (*models.Notification, error) {
	n, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Message != nil {
		if strings.TrimSpace(*in.Message) == "" {
			return nil, ValidationError{Field: "message", Message: "must not be empty"}
		}
		n.Message = *in.Message
	}
	if in.Subject != nil {
		n.Subject = *in.Subject
	}
	if in.Recipient != nil {
		n.Recipient = strings.TrimSpace(*in.Recipient)
	}
	if in.Template != nil {
		n.Template = *in.Template
	}
	if in.Data != nil {
		n.Data = maps.Clone(in.Data)
	}
	if in.Status != nil {
		switch *in.Status {
		case models.StatusPending, models.StatusProcessing, models.StatusDelivered, models.StatusFailed:
			n.Status = *in.Status
		default:
			return nil, ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", *in.Status)}
		}
	}
	if in.Error != nil {
		n.Error = *in.Error
	}

	now := s.now()
	if in.Read != nil {
		switch {
		case *in.Read && !n.Read:
			n.Read = true
			n.ReadAt = &now
		case !*in.Read:
			n.Read = false
			n.ReadAt = nil
		}
	}
	n.UpdatedAt = now

	if err := s.repo.Update(ctx, n); err != nil {
		if errors.Is(err, notificationRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update notification %s: %w", id, err)
	}
	return n, nil
}

func (s *DefaultNotificationService) MarkAsRead(ctx context.Context, id string) (*models.Notification, error) {
	read := true
	return s.Update(ctx, id, models.UpdateNotificationInput{Read: &read})
}

// MarkAllAsRead flags every unread notification of the user, optionally limited to types.
func (s *DefaultNotificationService) MarkAllAsRead(ctx context.Context, userID string, types []models.NotificationType) (int64, error) {
	if userID == "" {
		return 0, ValidationError{Field: "userId", Message: "is required"}
	}
	affected, err := s.repo.MarkAllRead(ctx, userID, types, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read for user %s: %w", userID, err)
	}
	return affected, nil
}

func (s *DefaultNotificationService) CountUnread(ctx context.Context, userID string, types []models.NotificationType) (int64, error) {
	if userID == "" {
		return 0, ValidationError{Field: "userId", Message: "is required"}
	}
	count, err := s.repo.CountUnread(ctx, userID, types)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications for user %s: %w", userID, err)
	}
	return count, nil
}

func (s *DefaultNotificationService) Remove(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, notificationRepo.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete notification %s: %w", id, err)
	}
	return nil
}
