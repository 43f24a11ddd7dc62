package handlers

import (
	"errors"
	"net/http"

	"bookdesk/models"
	"bookdesk/services/booking"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle.
type BookingHandler struct {
	Service booking.LifecycleService
	Logger  *zap.Logger
}

func NewBookingHandler(svc booking.LifecycleService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Logger: logger}
}

// TransitionRequest asks for a booking to move to a new state.
type TransitionRequest struct {
	State models.BookingState `json:"state" binding:"required"`
	Actor models.Actor        `json:"actor"`
}

// CreateBooking starts a booking in draft.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	var req booking.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	b, err := h.Service.Create(c.Request.Context(), req)
	if err != nil {
		writeBookingError(c, logger, "", err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	id := c.Param("id")
	b, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, getLogger(c, h.Logger), id, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// TransitionBooking applies a state change. The actor defaults to human.
func (h *BookingHandler) TransitionBooking(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	id := c.Param("id")
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}
	if req.Actor == "" {
		req.Actor = models.ActorHuman
	}
	if !req.Actor.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "actor must be system or human"})
		return
	}

	b, err := h.Service.Transition(c.Request.Context(), id, req.State, req.Actor)
	if err != nil {
		writeBookingError(c, logger, id, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// GetBookingHistory returns the audit trail and whether replaying it matches the stored state.
func (h *BookingHandler) GetBookingHistory(c *gin.Context) {
	id := c.Param("id")
	hist, err := h.Service.History(c.Request.Context(), id)
	if err != nil {
		writeBookingError(c, getLogger(c, h.Logger), id, err)
		return
	}
	c.JSON(http.StatusOK, hist)
}

func writeBookingError(c *gin.Context, logger *zap.Logger, id string, err error) {
	var invalid *booking.InvalidTransitionError
	var audit *booking.AuditWriteError
	switch {
	case errors.Is(err, booking.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, booking.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalid.Error(), "from": invalid.From, "to": invalid.To})
	case errors.Is(err, booking.ErrTransitionConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &audit):
		logger.Error("audit write failed", zap.String("booking_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Booking change could not be recorded"})
	default:
		logger.Error("booking operation failed", zap.String("booking_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
