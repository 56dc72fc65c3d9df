package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	notificationRepo "deployhub/database/repository/notification"
	"deployhub/models"
	"deployhub/services/channels"

	"go.uber.org/zap"
)

// ErrNotificationNotFound marks a job whose notification no longer exists. Retrying it cannot succeed.
var ErrNotificationNotFound = errors.New("notification not found")

const defaultPushTitle = "DeployHub"

type EmailSender interface {
	Send(ctx context.Context, msg channels.EmailMessage) (*channels.EmailResult, error)
}

type SMSSender interface {
	Send(ctx context.Context, to, message string) (*channels.SMSResult, error)
}

type PushSender interface {
	SendToTokens(ctx context.Context, tokens []string, msg channels.PushMessage) (*channels.MulticastResult, error)
}

// TokenStore resolves and prunes the push tokens of a user.
type TokenStore interface {
	Tokens(ctx context.Context, userID string) ([]string, error)
	Remove(ctx context.Context, userID string, tokens ...string) (int, error)
}

// DeliveryResult summarizes one dispatch attempt.
type DeliveryResult struct {
	NotificationID string                  `json:"notificationId"`
	Channel        models.NotificationType `json:"channel"`
	Success        bool                    `json:"success"`
	MessageID      string                  `json:"messageId,omitempty"`
	Recipient      string                  `json:"recipient,omitempty"`
	SuccessCount   int                     `json:"successCount,omitempty"`
	FailureCount   int                     `json:"failureCount,omitempty"`
	Skipped        bool                    `json:"skipped,omitempty"`
}

type Processor struct {
	repo   notificationRepo.NotificationRepository
	email  EmailSender
	sms    SMSSender
	push   PushSender
	tokens TokenStore
	logger *zap.Logger
	now    func() time.Time
}

func NewProcessor(
	repo notificationRepo.NotificationRepository,
	email EmailSender,
	sms SMSSender,
	push PushSender,
	tokens TokenStore,
	logger *zap.Logger,
) (*Processor, error) {
	if repo == nil || email == nil || sms == nil || push == nil || tokens == nil {
		return nil, fmt.Errorf("processor initialization error: one or more dependencies are nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		repo:   repo,
		email:  email,
		sms:    sms,
		push:   push,
		tokens: tokens,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Process delivers one notification. Status moves pending -> processing -> delivered|failed.
// A delivered notification is skipped. Errors are returned so the queue can apply its retry policy.
func (p *Processor) Process(ctx context.Context, notificationID string) (*DeliveryResult, error) {
	n, err := p.repo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, notificationRepo.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotificationNotFound, notificationID)
		}
		return nil, fmt.Errorf("failed to load notification %s: %w", notificationID, err)
	}

	log := p.logger.With(
		zap.String("notificationId", n.ID),
		zap.String("type", string(n.Type)),
		zap.String("userId", n.UserID))

	if n.Status == models.StatusDelivered {
		log.Info("Notification already delivered, skipping")
		return &DeliveryResult{NotificationID: n.ID, Channel: n.Type, Success: true, Skipped: true}, nil
	}

	n.Status = models.StatusProcessing
	n.Error = ""
	n.UpdatedAt = p.now()
	if err := p.repo.UpdateStatus(ctx, n); err != nil {
		// Nothing was sent and the record is still pending; the retry starts over.
		log.Warn("Failed to mark notification processing", zap.Error(err))
		return nil, fmt.Errorf("failed to mark notification processing: %w", err)
	}

	result, err := p.dispatch(ctx, log, n)
	if err != nil {
		return nil, p.fail(ctx, log, n, err)
	}

	now := p.now()
	n.Status = models.StatusDelivered
	n.ProcessedAt = &now
	n.UpdatedAt = now
	if err := p.repo.UpdateStatus(ctx, n); err != nil {
		return nil, p.fail(ctx, log, n, fmt.Errorf("failed to mark notification delivered: %w", err))
	}

	log.Info("Notification processed",
		zap.Bool("success", result.Success),
		zap.String("messageId", result.MessageID))
	return result, nil
}

// fail records cause on the notification and returns it. A failure to persist is only logged.
func (p *Processor) fail(ctx context.Context, log *zap.Logger, n *models.Notification, cause error) error {
	now := p.now()
	n.Status = models.StatusFailed
	n.Error = cause.Error()
	n.ProcessedAt = &now
	n.UpdatedAt = now

	if err := p.repo.UpdateStatus(ctx, n); err != nil {
		log.Error("Failed to persist notification failure", zap.NamedError("cause", cause), zap.Error(err))
	}
	log.Warn("Notification delivery failed", zap.Error(cause))
	return cause
}

func (p *Processor) dispatch(ctx context.Context, log *zap.Logger, n *models.Notification) (*DeliveryResult, error) {
	result := &DeliveryResult{NotificationID: n.ID, Channel: n.Type}

	switch n.Type {
	case models.NotificationTypeEmail:
		if n.Recipient == "" {
			return nil, fmt.Errorf("email notification %s has no recipient: %w", n.ID, channels.ErrMissingRecipient)
		}
		res, err := p.email.Send(ctx, channels.EmailMessage{
			To:       n.Recipient,
			Subject:  n.Subject,
			Message:  n.Message,
			Template: n.Template,
			Data:     n.Data,
		})
		if err != nil {
			return nil, err
		}
		result.Success, result.MessageID, result.Recipient = res.Success, res.MessageID, res.Recipient
		return result, nil

	case models.NotificationTypeSMS:
		if n.Recipient == "" {
			return nil, fmt.Errorf("sms notification %s has no recipient: %w", n.ID, channels.ErrMissingRecipient)
		}
		res, err := p.sms.Send(ctx, n.Recipient, n.Message)
		if err != nil {
			return nil, err
		}
		result.Success, result.MessageID, result.Recipient = res.Success, res.MessageID, res.Recipient
		return result, nil

	default:
		return p.dispatchPush(ctx, log, n, result)
	}
}

func (p *Processor) dispatchPush(ctx context.Context, log *zap.Logger, n *models.Notification, result *DeliveryResult) (*DeliveryResult, error) {
	tokens, err := p.tokens.Tokens(ctx, n.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load push tokens: %w", err)
	}
	if len(tokens) == 0 {
		log.Info("No push tokens registered, in-app only")
		return result, nil
	}

	title := n.Subject
	if title == "" {
		title = defaultPushTitle
	}
	data := channels.StringifyData(n.Data)
	if data == nil {
		data = make(map[string]string, 2)
	}
	data["notificationId"] = n.ID
	if n.Scope != "" {
		data["scope"] = string(n.Scope)
	}

	res, err := p.push.SendToTokens(ctx, tokens, channels.PushMessage{Title: title, Body: n.Message, Data: data})
	if err != nil {
		return nil, err
	}

	if stale := res.UnregisteredTokens(); len(stale) > 0 {
		if removed, err := p.tokens.Remove(ctx, n.UserID, stale...); err != nil {
			log.Warn("Failed to prune unregistered push tokens", zap.Error(err))
		} else {
			log.Info("Pruned unregistered push tokens", zap.Int("removed", removed))
		}
	}

	result.Success = res.Success
	result.SuccessCount = res.SuccessCount
	result.FailureCount = res.FailureCount
	return result, nil
}
