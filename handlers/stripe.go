package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"deployhub/models"
	"deployhub/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const maxWebhookBody = 65536

// Stripe reports amounts in the smallest unit; these currencies have no minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true, "JPY": true, "KMF": true,
	"KRW": true, "MGA": true, "PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

func majorUnits(amount int64, currency string) float64 {
	if zeroDecimalCurrencies[currency] {
		return float64(amount)
	}
	return float64(amount) / 100
}

// Emitter publishes domain events.
type Emitter interface {
	Emit(ctx context.Context, event string, payload any) int
}

// StripeWebhookHandler turns verified Stripe payment events into order events.
type StripeWebhookHandler struct {
	bus    Emitter
	secret string
}

func NewStripeWebhookHandler(bus Emitter, secret string) *StripeWebhookHandler {
	return &StripeWebhookHandler{bus: bus, secret: secret}
}

func (h *StripeWebhookHandler) HandleWebhook(c *gin.Context) {
	logger := getLogger(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		utils.JSONError(c, http.StatusServiceUnavailable, "Failed to read webhook body", err.Error())
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Stripe webhook signature verification failed", err.Error())
		return
	}

	switch event.Type {
	case "payment_intent.created", "payment_intent.succeeded", "payment_intent.payment_failed":
	default:
		c.JSON(http.StatusOK, gin.H{"received": true, "handled": false})
		return
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		logger.Error("Failed to parse payment intent", zap.String("eventId", event.ID), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment intent"})
		return
	}

	name, domainEvent := paymentEvent(event.Type, &pi)
	handled := h.bus.Emit(c.Request.Context(), name, domainEvent)
	logger.Info("Stripe webhook processed",
		zap.String("eventId", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int("handlers", handled))
	c.JSON(http.StatusOK, gin.H{"received": true, "handled": true})
}

// paymentEvent maps a payment intent to the matching domain event. The order details travel in metadata.
func paymentEvent(t stripe.EventType, pi *stripe.PaymentIntent) (string, any) {
	md := pi.Metadata
	currency := strings.ToUpper(string(pi.Currency))
	amount := majorUnits(pi.Amount, currency)

	switch t {
	case "payment_intent.succeeded":
		return models.EventOrderCompleted, models.OrderCompletedEvent{
			OrderID:           md["orderId"],
			BuyerID:           md["buyerId"],
			BuyerEmail:        md["buyerEmail"],
			LicenseOwnerID:    md["licenseOwnerId"],
			LicenseOwnerEmail: md["licenseOwnerEmail"],
			ProjectName:       md["projectName"],
			LicenseName:       md["licenseName"],
			Amount:            amount,
			Currency:          currency,
		}
	case "payment_intent.payment_failed":
		reason := "payment was declined"
		if pi.LastPaymentError != nil && pi.LastPaymentError.Msg != "" {
			reason = pi.LastPaymentError.Msg
		}
		return models.EventPaymentFailed, models.PaymentFailedEvent{
			OrderID:    md["orderId"],
			PaymentID:  pi.ID,
			BuyerID:    md["buyerId"],
			BuyerEmail: md["buyerEmail"],
			Amount:     amount,
			Currency:   currency,
			Reason:     reason,
		}
	default:
		return models.EventOrderCreated, models.OrderCreatedEvent{
			OrderID:     md["orderId"],
			BuyerID:     md["buyerId"],
			BuyerEmail:  md["buyerEmail"],
			ProjectName: md["projectName"],
			LicenseName: md["licenseName"],
			Amount:      amount,
			Currency:    currency,
		}
	}
}
