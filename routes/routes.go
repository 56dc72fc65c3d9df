package routes

import (
	"time"

	"deployhub/handlers"
	"deployhub/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterNotificationRoutes registers the in-app notification endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		// Protected routes (Require Authentication)
		api.Use(middleware.JWTAuthMiddleware())
		api.GET("", hb.Notifications.ListNotificationsHandler)
		api.GET("/unread-count", hb.Notifications.UnreadCountHandler)
		api.PATCH("/read-all", hb.Notifications.MarkAllAsReadHandler)
		api.GET("/:id", hb.Notifications.GetNotificationHandler)
		api.PATCH("/:id", hb.Notifications.UpdateNotificationHandler)
		api.PATCH("/:id/read", hb.Notifications.MarkAsReadHandler)
		api.DELETE("/:id", hb.Notifications.DeleteNotificationHandler)

		admin := api.Group("")
		admin.Use(middleware.AdminOnly())
		admin.POST("", hb.Notifications.CreateNotificationHandler)
	}
}

// RegisterTokenRoutes registers push token management for the caller's devices.
func RegisterTokenRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/push-tokens")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.Tokens.RegisterTokenHandler)
		api.GET("", hb.Tokens.ListTokensHandler)
		api.DELETE("", hb.Tokens.RemoveAllTokensHandler)
		api.DELETE("/:token", hb.Tokens.RemoveTokenHandler)
	}
}

// RegisterWebhookRoutes registers unauthenticated provider callbacks. Stripe requests are signature checked.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/webhooks/stripe", hb.Webhooks.HandleWebhook)
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterTokenRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
}
