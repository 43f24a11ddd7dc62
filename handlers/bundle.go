package handlers

import "github.com/gin-gonic/gin"

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Booking endpoints
	CreateBooking     gin.HandlerFunc
	GetBooking        gin.HandlerFunc
	TransitionBooking gin.HandlerFunc
	GetBookingHistory gin.HandlerFunc

	// Channel webhooks
	WhatsAppVerify  gin.HandlerFunc
	WhatsAppReceive gin.HandlerFunc
	StripeWebhook   gin.HandlerFunc

	// Draft endpoints
	SendDraft gin.HandlerFunc

	Health gin.HandlerFunc
}
