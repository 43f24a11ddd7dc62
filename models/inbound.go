package models

import "time"

// Channel names the transport an inbound event arrived on.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelStripe   Channel = "stripe"
)

// EventKind distinguishes customer messages from provider webhook deliveries.
type EventKind string

const (
	EventMessage EventKind = "message"
	EventWebhook EventKind = "webhook"
)

// InboundEvent is a normalized event received from a channel.
// (Channel, ExternalID) is its dedup identity.
type InboundEvent struct {
	ID          string     `bson:"id" json:"id"`
	Channel     Channel    `bson:"channel" json:"channel"`
	ExternalID  string     `bson:"external_id" json:"external_id"` // provider message id or webhook event id
	Kind        EventKind  `bson:"kind" json:"kind"`
	ChannelID   string     `bson:"channel_id,omitempty" json:"channel_id,omitempty"` // business account the event was addressed to
	SenderID    string     `bson:"sender_id,omitempty" json:"sender_id,omitempty"`
	Text        string     `bson:"text,omitempty" json:"text,omitempty"`
	Payload     []byte     `bson:"payload,omitempty" json:"-"`
	ReceivedAt  time.Time  `bson:"received_at" json:"received_at"`
	ProcessedAt *time.Time `bson:"processed_at,omitempty" json:"processed_at,omitempty"` // unset until routing finished
}

// IngestStatus is the outcome of an ingestion attempt.
type IngestStatus string

const (
	IngestInserted      IngestStatus = "inserted"
	IngestAlreadyExists IngestStatus = "already_exists"
)

// IngestResult reports whether an event was newly stored, and under which id.
// Pending marks a redelivery whose first delivery never finished processing.
type IngestResult struct {
	Status  IngestStatus `json:"status"`
	ID      string       `json:"id"`
	Pending bool         `json:"pending,omitempty"`
}

// ChannelIdentityMapping joins an external messaging identity to an internal conversation.
type ChannelIdentityMapping struct {
	Channel            Channel   `bson:"channel" json:"channel"`
	CustomerIdentifier string    `bson:"customer_identifier" json:"customer_identifier"`
	ConversationID     string    `bson:"conversation_id" json:"conversation_id"`
	CreatedAt          time.Time `bson:"created_at" json:"created_at"`
}
