// File: services/intelligence/interface.go
package ai

import (
	"context"

	"bookdesk/models"
)

// TextGenerator is the single call the classifier and drafter need from a model.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// MessageClassifier turns raw message text into relevance and intent signals.
type MessageClassifier interface {
	Classify(ctx context.Context, text string, cctx models.ClassifyContext) (models.Classification, error)
}

// ConversationMemory keeps the last few messages of each conversation for prompting.
type ConversationMemory interface {
	Append(ctx context.Context, conversationID string, turn Turn) error
	Recent(ctx context.Context, conversationID string) ([]Turn, error)
}
