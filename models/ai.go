package models

import "time"

// Intent is the classified purpose of a customer message.
type Intent string

const (
	IntentBooking    Intent = "booking"
	IntentReschedule Intent = "reschedule"
	IntentCancel     Intent = "cancel"
	IntentQuestion   Intent = "question"
	IntentOther      Intent = "other"
)

// Classification is the typed output of the classifier adapter.
type Classification struct {
	Relevance           bool    `json:"relevance"`
	RelevanceConfidence float64 `json:"relevance_confidence"`
	Intent              Intent  `json:"intent"`
	IntentConfidence    float64 `json:"intent_confidence"`
}

// ClassifyContext carries what the classifier may use besides the message text.
type ClassifyContext struct {
	ConversationID string `json:"conversation_id"`
	BusinessName   string `json:"business_name,omitempty"`
}

// Draft is an AI-generated candidate reply awaiting a human or eligibility check.
type Draft struct {
	ID                  string    `bson:"id" json:"id"`
	ConversationID      string    `bson:"conversation_id" json:"conversation_id"`
	ChannelID           string    `bson:"channel_id" json:"channel_id"`
	RecipientID         string    `bson:"recipient_id" json:"recipient_id"`
	Text                string    `bson:"text" json:"text"`
	Model               string    `bson:"model" json:"model"`
	Band                string    `bson:"band" json:"band"`
	RelevanceConfidence float64   `bson:"relevance_confidence" json:"relevance_confidence"`
	IntentConfidence    float64   `bson:"intent_confidence" json:"intent_confidence"`
	SendingAt           time.Time `bson:"sending_at,omitempty" json:"-"` // claim held by an in-flight send
	SentAt              time.Time `bson:"sent_at,omitempty" json:"sent_at,omitempty"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
}

// Escalation flags a conversation for a human, with the confidence pair that caused it.
type Escalation struct {
	ID                  string    `bson:"id" json:"id"`
	ConversationID      string    `bson:"conversation_id" json:"conversation_id"`
	EventID             string    `bson:"event_id" json:"event_id"`
	Reason              string    `bson:"reason" json:"reason"`
	RelevanceConfidence float64   `bson:"relevance_confidence" json:"relevance_confidence"`
	IntentConfidence    float64   `bson:"intent_confidence" json:"intent_confidence"`
	CreatedAt           time.Time `bson:"created_at" json:"created_at"`
}
