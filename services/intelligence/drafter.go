// File: services/intelligence/drafter.go
package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bookdesk/services/drafts"

	"go.uber.org/zap"
)

const draftPrompt = `You write short, friendly WhatsApp replies on behalf of an instructor.
Never confirm a booking or a price; offer to check and get back instead.
Keep it under 60 words and in the customer's language.

Conversation so far:
%s
Customer: %s

Reply:`

// Drafter generates reply drafts. It implements drafts.Generator.
type Drafter struct {
	llm    TextGenerator
	memory ConversationMemory
	logger *zap.Logger
	now    func() time.Time
}

// NewDrafter builds a drafter. memory may be nil, in which case no history is sent.
func NewDrafter(llm TextGenerator, memory ConversationMemory, logger *zap.Logger) *Drafter {
	return &Drafter{llm: llm, memory: memory, logger: logger, now: time.Now}
}

func (d *Drafter) Generate(ctx context.Context, conversationID, latestMessage string) (drafts.Generated, error) {
	var history []Turn
	if d.memory != nil {
		h, err := d.memory.Recent(ctx, conversationID)
		if err != nil {
			d.logger.Warn("conversation memory unavailable", zap.String("conversation_id", conversationID), zap.Error(err))
		}
		history = h
	}
	// The latest message is rendered on its own line.
	if n := len(history); n > 0 && history[n-1].Role == "Customer" && history[n-1].Text == latestMessage {
		history = history[:n-1]
	}

	text, err := d.llm.GenerateContent(ctx, fmt.Sprintf(draftPrompt, renderHistory(history), latestMessage))
	if err != nil {
		return drafts.Generated{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return drafts.Generated{}, ErrEmptyResponse
	}
	return drafts.Generated{Text: text, Model: d.llm.ModelName(), CreatedAt: d.now().UTC()}, nil
}

func renderHistory(turns []Turn) string {
	if len(turns) == 0 {
		return "(none)\n"
	}
	var sb strings.Builder
	for _, t := range turns {
		sb.WriteString(t.Role)
		sb.WriteString(": ")
		sb.WriteString(t.Text)
		sb.WriteString("\n")
	}
	return sb.String()
}
