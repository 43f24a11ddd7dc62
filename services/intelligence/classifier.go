// File: services/intelligence/classifier.go
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"bookdesk/models"
)

const classifyPrompt = `You triage messages sent to %s, an instructor who takes lesson bookings.
Reply with one JSON object and nothing else:
{"relevance": bool, "relevance_confidence": number 0..1, "intent": one of "booking","reschedule","cancel","question","other", "intent_confidence": number 0..1}
relevance is true when the message concerns lessons, scheduling or payment for them.

Message:
%s`

// Classifier asks a model for a JSON classification.
type Classifier struct {
	llm TextGenerator
}

func NewClassifier(llm TextGenerator) *Classifier {
	return &Classifier{llm: llm}
}

// Classify never fails on out-of-range scores; the engine clamps them.
// An unknown intent label is reported as other.
func (c *Classifier) Classify(ctx context.Context, text string, cctx models.ClassifyContext) (models.Classification, error) {
	business := cctx.BusinessName
	if business == "" {
		business = "the business"
	}
	raw, err := c.llm.GenerateContent(ctx, fmt.Sprintf(classifyPrompt, business, text))
	if err != nil {
		return models.Classification{}, err
	}
	return parseClassification(raw)
}

func parseClassification(raw string) (models.Classification, error) {
	var out models.Classification
	if err := json.Unmarshal([]byte(stripFences(raw)), &out); err != nil {
		return models.Classification{}, fmt.Errorf("unparseable classification %q: %w", truncate(raw, 120), err)
	}
	out.Intent = normalizeIntent(out.Intent)
	return out, nil
}

func normalizeIntent(i models.Intent) models.Intent {
	switch models.Intent(strings.ToLower(strings.TrimSpace(string(i)))) {
	case models.IntentBooking:
		return models.IntentBooking
	case models.IntentReschedule:
		return models.IntentReschedule
	case models.IntentCancel:
		return models.IntentCancel
	case models.IntentQuestion:
		return models.IntentQuestion
	default:
		return models.IntentOther
	}
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
