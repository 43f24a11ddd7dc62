package handlers

import (
	"context"
	"errors"
	"net/http"

	"bookdesk/models"
	"bookdesk/services/outbound"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// DraftSender delivers a stored draft.
type DraftSender interface {
	SendDraft(ctx context.Context, draftID string) (*models.Draft, error)
}

type DraftHandler struct {
	Sender DraftSender
	Logger *zap.Logger
}

// SendDraft sends a draft a human has approved.
func (h *DraftHandler) SendDraft(c *gin.Context) {
	id := c.Param("id")
	d, err := h.Sender.SendDraft(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, d)
	case errors.Is(err, outbound.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
	case errors.Is(err, outbound.ErrAlreadySent):
		c.JSON(http.StatusConflict, gin.H{"error": "Draft already sent"})
	case errors.Is(err, outbound.ErrSendInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Draft is being sent"})
	case errors.Is(err, outbound.ErrRateLimited):
		c.Header("Retry-After", "1")
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Outbound rate limit reached. Try again shortly."})
	default:
		getLogger(c, h.Logger).Error("failed to send draft", zap.String("draft_id", id), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to send draft"})
	}
}
