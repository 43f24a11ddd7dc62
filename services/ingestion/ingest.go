// Package ingestion deduplicates inbound channel events before they reach the pipeline.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ingestionRepo "bookdesk/database/repository/ingestion"
	"bookdesk/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ingestor records each (channel, external id) at most once.
type Ingestor struct {
	events     ingestionRepo.EventRepository
	identities ingestionRepo.IdentityRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewIngestor builds an Ingestor.
func NewIngestor(events ingestionRepo.EventRepository, identities ingestionRepo.IdentityRepository, logger *zap.Logger) *Ingestor {
	return &Ingestor{events: events, identities: identities, logger: logger, now: time.Now}
}

// Key returns the dedup key of an event.
func Key(channel models.Channel, externalID string) string {
	return string(channel) + ":" + externalID
}

func validKey(channel models.Channel, externalID string) error {
	if strings.TrimSpace(string(channel)) == "" || strings.TrimSpace(externalID) == "" {
		return &MalformedKeyError{Channel: string(channel), ExternalID: externalID}
	}
	return nil
}

// Ingest inserts the event. A redelivery is a success reported as
// already_exists with the id of the first delivery, flagged Pending when
// that delivery was never marked processed.
func (i *Ingestor) Ingest(ctx context.Context, event models.InboundEvent) (models.IngestResult, error) {
	if err := validKey(event.Channel, event.ExternalID); err != nil {
		return models.IngestResult{}, err
	}

	event.ID = uuid.New().String()
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = i.now().UTC()
	}
	event.ProcessedAt = nil

	err := i.events.Insert(ctx, &event)
	switch {
	case err == nil:
		return models.IngestResult{Status: models.IngestInserted, ID: event.ID}, nil
	case errors.Is(err, ingestionRepo.ErrDuplicate):
		existing, ferr := i.events.FindByKey(ctx, event.Channel, event.ExternalID)
		if ferr != nil {
			return models.IngestResult{}, fmt.Errorf("failed to load duplicate event %s: %w", Key(event.Channel, event.ExternalID), ferr)
		}
		pending := existing.ProcessedAt == nil
		i.logger.Debug("duplicate delivery", zap.String("key", Key(event.Channel, event.ExternalID)), zap.Bool("pending", pending))
		return models.IngestResult{Status: models.IngestAlreadyExists, ID: existing.ID, Pending: pending}, nil
	default:
		return models.IngestResult{}, fmt.Errorf("failed to ingest event: %w", err)
	}
}

// MarkProcessed records that the event with the given id was fully handled,
// so later redeliveries stop at ingestion.
func (i *Ingestor) MarkProcessed(ctx context.Context, id string) error {
	if err := i.events.MarkProcessed(ctx, id, i.now().UTC()); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// ResolveConversation returns the conversation for an external customer,
// creating the mapping on first contact.
func (i *Ingestor) ResolveConversation(ctx context.Context, channel models.Channel, customerID string) (string, error) {
	if err := validKey(channel, customerID); err != nil {
		return "", err
	}
	m, created, err := i.identities.GetOrCreate(ctx, models.ChannelIdentityMapping{
		Channel:            channel,
		CustomerIdentifier: customerID,
		ConversationID:     uuid.New().String(),
		CreatedAt:          i.now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to resolve conversation: %w", err)
	}
	if created {
		i.logger.Info("new conversation", zap.String("channel", string(channel)), zap.String("conversation_id", m.ConversationID))
	}
	return m.ConversationID, nil
}
