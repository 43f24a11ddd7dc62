package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"bookdesk/models"
	"bookdesk/services/pipeline"
	"bookdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessagePipeline handles one normalized inbound message.
type MessagePipeline interface {
	HandleInbound(ctx context.Context, event models.InboundEvent) (pipeline.Outcome, error)
}

// WhatsAppHandler receives WhatsApp Cloud API webhooks.
type WhatsAppHandler struct {
	Pipeline    MessagePipeline
	VerifyToken string
	Logger      *zap.Logger
}

type waWebhook struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Metadata struct {
					PhoneNumberID string `json:"phone_number_id"`
				} `json:"metadata"`
				Messages []waMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type waMessage struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      struct {
		Body string `json:"body"`
	} `json:"text"`
}

// Verify answers the subscription handshake.
func (h *WhatsAppHandler) Verify(c *gin.Context) {
	if h.VerifyToken == "" || c.Query("hub.mode") != "subscribe" || c.Query("hub.verify_token") != h.VerifyToken {
		c.Status(http.StatusForbidden)
		return
	}
	c.String(http.StatusOK, c.Query("hub.challenge"))
}

// Receive runs every text message in the delivery through the pipeline.
// Non-text messages are skipped.
func (h *WhatsAppHandler) Receive(c *gin.Context) {
	logger := getLogger(c, h.Logger)
	var body waWebhook
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "Invalid payload", err.Error())
		return
	}

	var outcomes []pipeline.Outcome
	failed := 0
	for _, entry := range body.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				if m.Type != "text" {
					continue
				}
				out, err := h.Pipeline.HandleInbound(c.Request.Context(), models.InboundEvent{
					Channel:    models.ChannelWhatsApp,
					ExternalID: m.ID,
					ChannelID:  change.Value.Metadata.PhoneNumberID,
					SenderID:   m.From,
					Text:       m.Text.Body,
					ReceivedAt: parseUnix(m.Timestamp),
				})
				if err != nil {
					failed++
					logger.Error("failed to handle message", zap.String("message_id", m.ID), zap.Error(err))
					continue
				}
				outcomes = append(outcomes, out)
			}
		}
	}
	// A failure asks the provider to redeliver. Finished messages stop at
	// ingestion on retry and unfinished ones are routed again.
	if failed > 0 {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "some messages failed", "failed": failed, "outcomes": outcomes})
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcomes": outcomes})
}

func parseUnix(s string) time.Time {
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil || sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
