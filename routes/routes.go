package routes

import (
	"time"

	"bookdesk/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes sets up the endpoints for the booking lifecycle.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.POST("", hb.CreateBooking)
		bookingGroup.GET("/:id", hb.GetBooking)
		bookingGroup.POST("/:id/transition", hb.TransitionBooking)
		bookingGroup.GET("/:id/audit", hb.GetBookingHistory)
	}
}

// RegisterWebhookRoutes registers the channel and payment webhooks.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	webhooks := r.Group("/webhooks")
	{
		webhooks.GET("/whatsapp", hb.WhatsAppVerify)
		webhooks.POST("/whatsapp", hb.WhatsAppReceive)
		webhooks.POST("/stripe", hb.StripeWebhook)
	}
}

// RegisterDraftRoutes registers endpoints for AI drafts.
func RegisterDraftRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/drafts")
	{
		api.POST("/:id/send", hb.SendDraft)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterBookingRoutes(r, hb)
	RegisterWebhookRoutes(r, hb)
	RegisterDraftRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
