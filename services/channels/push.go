package channels

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// FCM rejects multicast batches above this size.
const maxMulticastTokens = 500

// PushTransport is satisfied by *messaging.Client.
type PushTransport interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type PushMessage struct {
	Title string
	Body  string
	Data  map[string]string
}

type PushResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	Token     string `json:"token"`
	Error     string `json:"error,omitempty"`

	// Unregistered is set when FCM reports the token as no longer valid.
	Unregistered bool `json:"-"`
}

type MulticastResult struct {
	Success      bool         `json:"success"`
	SuccessCount int          `json:"successCount"`
	FailureCount int          `json:"failureCount"`
	Results      []PushResult `json:"results"`
}

// UnregisteredTokens lists the tokens FCM rejected as unregistered.
func (r *MulticastResult) UnregisteredTokens() []string {
	var out []string
	for _, res := range r.Results {
		if res.Unregistered {
			out = append(out, res.Token)
		}
	}
	return out
}

// PushChannel sends FCM notifications. Without a transport it runs in mock mode.
type PushChannel struct {
	transport PushTransport
	logger    *zap.Logger
	mockDelay time.Duration
}

func NewPushChannel(transport PushTransport, logger *zap.Logger) *PushChannel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PushChannel{transport: transport, logger: logger, mockDelay: defaultMockDelay}
}

func (c *PushChannel) Mock() bool { return c.transport == nil }

// SendToToken never returns an error; per-token failures are reported in the result.
func (c *PushChannel) SendToToken(ctx context.Context, token string, msg PushMessage) PushResult {
	if c.transport == nil {
		if err := sleep(ctx, c.mockDelay); err != nil {
			return PushResult{Success: false, Token: token, Error: err.Error()}
		}
		return PushResult{Success: true, MessageID: "mock-push-" + uuid.New().String(), Token: token}
	}

	id, err := c.transport.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
		Android:      androidConfig(),
		APNS:         apnsConfig(),
	})
	if err != nil {
		c.logger.Warn("Push send failed", zap.String("token", maskToken(token)), zap.Error(err))
		return PushResult{Success: false, Token: token, Error: err.Error(), Unregistered: messaging.IsUnregistered(err)}
	}
	return PushResult{Success: true, MessageID: id, Token: token}
}

// SendToTokens multicasts msg to every token. An empty token list is a successful no-op.
func (c *PushChannel) SendToTokens(ctx context.Context, tokens []string, msg PushMessage) (*MulticastResult, error) {
	result := &MulticastResult{Success: true, Results: []PushResult{}}
	if len(tokens) == 0 {
		return result, nil
	}

	if c.transport == nil {
		if err := sleep(ctx, c.mockDelay); err != nil {
			return nil, err
		}
		for _, t := range tokens {
			result.Results = append(result.Results, PushResult{Success: true, MessageID: "mock-push-" + uuid.New().String(), Token: t})
		}
		result.SuccessCount = len(tokens)
		c.logger.Info("Push multicast sent (mock)", zap.Int("tokens", len(tokens)))
		return result, nil
	}

	for start := 0; start < len(tokens); start += maxMulticastTokens {
		end := min(start+maxMulticastTokens, len(tokens))
		batch := tokens[start:end]

		resp, err := c.transport.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
			Data:         msg.Data,
			Android:      androidConfig(),
			APNS:         apnsConfig(),
		})
		if err != nil {
			return nil, fmt.Errorf("push multicast failed: %w", err)
		}

		result.SuccessCount += resp.SuccessCount
		result.FailureCount += resp.FailureCount
		for i, r := range resp.Responses {
			if i >= len(batch) {
				break
			}
			pr := PushResult{Success: r.Success, MessageID: r.MessageID, Token: batch[i]}
			if r.Error != nil {
				pr.Error = r.Error.Error()
				pr.Unregistered = messaging.IsUnregistered(r.Error)
			}
			result.Results = append(result.Results, pr)
		}
	}

	result.Success = result.SuccessCount > 0
	c.logger.Info("Push multicast sent",
		zap.Int("successCount", result.SuccessCount),
		zap.Int("failureCount", result.FailureCount))
	return result, nil
}

func androidConfig() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			ChannelID: "high_priority",
			Sound:     "default",
		},
	}
}

func apnsConfig() *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Headers: map[string]string{
			"apns-priority":  "10",
			"apns-push-type": "alert",
		},
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{Sound: "default"},
		},
	}
}

// StringifyData flattens a notification payload into FCM's string-only data map.
func StringifyData(data map[string]any) map[string]string {
	if len(data) == 0 {
		return nil
	}
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			out[k] = t
		case time.Time:
			out[k] = t.UTC().Format(time.RFC3339)
		case primitive.DateTime:
			out[k] = t.Time().UTC().Format(time.RFC3339)
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "…" + token[len(token)-4:]
}
