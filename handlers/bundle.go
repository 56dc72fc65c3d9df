// File: deployhub/handlers/bundle.go
package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	Notifications *NotificationHandler
	Tokens        *TokenHandler
	Webhooks      *StripeWebhookHandler

	HealthHandler gin.HandlerFunc
}
