package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"bookdesk/models"
	"bookdesk/services/booking"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

const maxWebhookBody = 65536

// EventIngester records webhook deliveries once.
type EventIngester interface {
	Ingest(ctx context.Context, event models.InboundEvent) (models.IngestResult, error)
	MarkProcessed(ctx context.Context, id string) error
}

// BookingTransitioner is the lifecycle call a payment drives.
type BookingTransitioner interface {
	Transition(ctx context.Context, id string, next models.BookingState, actor models.Actor) (*models.Booking, error)
}

// PaymentHandler turns Stripe payment webhooks into booking confirmations.
type PaymentHandler struct {
	Secret   string
	Ingest   EventIngester
	Bookings BookingTransitioner
	Logger   *zap.Logger
}

// StripeWebhook verifies the signature, dedups on the Stripe event id and
// confirms the booking named in the payment intent metadata.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to read body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.Secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		logger.Warn("rejected stripe webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}
	if event.Type != "payment_intent.succeeded" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "type": event.Type})
		return
	}

	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment intent"})
		return
	}
	bookingID := intent.Metadata["booking_id"]
	if bookingID == "" {
		c.JSON(http.StatusOK, gin.H{"status": "ignored", "reason": "no booking_id"})
		return
	}

	res, err := h.Ingest.Ingest(c.Request.Context(), models.InboundEvent{
		Channel:    models.ChannelStripe,
		ExternalID: event.ID,
		Kind:       models.EventWebhook,
		SenderID:   intent.ID,
		Payload:    payload,
	})
	if err != nil {
		logger.Error("failed to ingest stripe event", zap.String("event_id", event.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}
	if res.Status == models.IngestAlreadyExists && !res.Pending {
		c.JSON(http.StatusOK, gin.H{"status": res.Status, "id": res.ID})
		return
	}

	b, err := h.Bookings.Transition(c.Request.Context(), bookingID, models.BookingConfirmed, models.ActorSystem)
	var invalid *booking.InvalidTransitionError
	switch {
	case err == nil:
		if !h.markProcessed(c, logger, res.ID) {
			return
		}
		logger.Info("booking confirmed by payment", zap.String("booking_id", bookingID), zap.String("event_id", event.ID))
		c.JSON(http.StatusOK, gin.H{"status": "confirmed", "booking": b})
	case errors.As(err, &invalid), errors.Is(err, booking.ErrTransitionConflict), errors.Is(err, booking.ErrBookingNotFound):
		if !h.markProcessed(c, logger, res.ID) {
			return
		}
		// The payment stands; the booking needs a human.
		logger.Warn("payment did not confirm booking", zap.String("booking_id", bookingID), zap.String("event_id", event.ID), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "not_confirmed", "reason": err.Error()})
	default:
		// Left unprocessed so Stripe's redelivery tries again.
		logger.Error("failed to confirm booking", zap.String("booking_id", bookingID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm booking"})
	}
}

func (h *PaymentHandler) markProcessed(c *gin.Context, logger *zap.Logger, id string) bool {
	if err := h.Ingest.MarkProcessed(c.Request.Context(), id); err != nil {
		logger.Error("failed to mark stripe event processed", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return false
	}
	return true
}
