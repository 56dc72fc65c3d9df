package channels

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"deployhub/services/templates"

	"github.com/a-h/templ"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrMissingRecipient = errors.New("recipient is required")
	ErrEmailTransport   = errors.New("email transport failed")
)

const defaultMockDelay = 100 * time.Millisecond

type Attachment struct {
	Name        string
	Content     []byte
	ContentType string
}

// Mail is a fully rendered message handed to a MailTransport.
type Mail struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Tag         string
	Attachments []Attachment
}

// MailTransport delivers rendered mail and returns the provider message id.
type MailTransport interface {
	SendMail(ctx context.Context, mail Mail) (string, error)
}

// EmailMessage is the unrendered input of the email channel.
type EmailMessage struct {
	To          string
	Subject     string
	Message     string
	Template    string
	Data        map[string]any
	Attachments []Attachment
}

type EmailResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
	Recipient string `json:"recipient"`
}

// EmailChannel renders templates and sends them. Without a transport it runs in mock mode.
type EmailChannel struct {
	transport MailTransport
	logger    *zap.Logger
	mockDelay time.Duration
}

func NewEmailChannel(transport MailTransport, logger *zap.Logger) *EmailChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailChannel{transport: transport, logger: logger, mockDelay: defaultMockDelay}
}

// Mock reports whether the channel simulates delivery.
func (c *EmailChannel) Mock() bool { return c.transport == nil }

func (c *EmailChannel) Send(ctx context.Context, msg EmailMessage) (*EmailResult, error) {
	to := strings.TrimSpace(msg.To)
	if to == "" {
		return nil, fmt.Errorf("email: %w", ErrMissingRecipient)
	}

	html := c.render(ctx, msg)

	if c.transport == nil {
		if err := sleep(ctx, c.mockDelay); err != nil {
			return nil, err
		}
		id := "mock-email-" + uuid.New().String()
		c.logger.Info("Email sent (mock)",
			zap.String("to", to),
			zap.String("subject", msg.Subject),
			zap.String("messageId", id))
		return &EmailResult{Success: true, MessageID: id, Recipient: to}, nil
	}

	id, err := c.transport.SendMail(ctx, Mail{
		To:          to,
		Subject:     msg.Subject,
		HTML:        html,
		Text:        msg.Message,
		Tag:         msg.Template,
		Attachments: msg.Attachments,
	})
	if err != nil {
		return nil, errors.Join(ErrEmailTransport, err)
	}

	c.logger.Info("Email sent", zap.String("to", to), zap.String("messageId", id))
	return &EmailResult{Success: true, MessageID: id, Recipient: to}, nil
}

// render falls back to a generic body so delivery is still attempted when a template fails.
func (c *EmailChannel) render(ctx context.Context, msg EmailMessage) string {
	data := maps.Clone(msg.Data)
	if data == nil {
		data = make(map[string]any, 2)
	}
	if _, ok := data["title"]; !ok {
		data["title"] = msg.Subject
	}
	if _, ok := data["message"]; !ok {
		data["message"] = msg.Message
	}

	if msg.Template != "" {
		html, err := templates.RenderTemplate(ctx, msg.Template, data)
		if err == nil {
			return html
		}
		c.logger.Warn("Email template rendering failed, using fallback body",
			zap.String("template", msg.Template), zap.Error(err))
	}

	html, err := templates.Render(ctx, templates.Fallback(msg.Subject, msg.Message, msg.Data))
	if err != nil {
		return plainBody(msg.Message)
	}
	return html
}

func plainBody(message string) string {
	return "<p>" + templ.EscapeString(message) + "</p>"
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
