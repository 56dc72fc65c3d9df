package channels

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type SMSResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Recipient string `json:"recipient"`
	Status    string `json:"status"`
}

// SMSChannel is a text-only sender. No SMS provider is wired, so it logs and reports a queued message.
type SMSChannel struct {
	logger    *zap.Logger
	mockDelay time.Duration
}

func NewSMSChannel(logger *zap.Logger) *SMSChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SMSChannel{logger: logger, mockDelay: defaultMockDelay}
}

func (c *SMSChannel) Send(ctx context.Context, to, message string) (*SMSResult, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, fmt.Errorf("sms: %w", ErrMissingRecipient)
	}
	if err := sleep(ctx, c.mockDelay); err != nil {
		return nil, err
	}

	id := "mock-sms-" + uuid.New().String()
	c.logger.Info("SMS sent (mock)",
		zap.String("to", to),
		zap.Int("length", len(message)),
		zap.String("messageId", id))
	return &SMSResult{Success: true, MessageID: id, Recipient: to, Status: "queued"}, nil
}
