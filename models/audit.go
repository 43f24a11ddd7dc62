package models

import "time"

// Actor attributes a booking transition to whoever performed it.
type Actor string

const (
	ActorSystem Actor = "system"
	ActorHuman  Actor = "human"
)

// Valid reports whether a is one of the known actors.
func (a Actor) Valid() bool {
	return a == ActorSystem || a == ActorHuman
}

// BookingAuditEntry is an immutable record of one booking state transition.
type BookingAuditEntry struct {
	ID            string       `bson:"id" json:"id"`
	BookingID     string       `bson:"booking_id" json:"booking_id"`
	PreviousState BookingState `bson:"previous_state" json:"previous_state"`
	NewState      BookingState `bson:"new_state" json:"new_state"`
	Actor         Actor        `bson:"actor" json:"actor"`
	Timestamp     time.Time    `bson:"timestamp" json:"timestamp"`
	// Seq is the booking version the transition produced. It orders the
	// ledger; timestamps come from the writer's clock and only break nothing.
	Seq int64 `bson:"seq" json:"seq"`
}
