package models

import "time"

// BookingState is the lifecycle state of a booking.
type BookingState string

const (
	BookingDraft     BookingState = "draft"
	BookingProposed  BookingState = "proposed"
	BookingConfirmed BookingState = "confirmed"
	BookingCancelled BookingState = "cancelled"
	BookingExpired   BookingState = "expired"
)

// InitialBookingState is the state every booking is created in.
const InitialBookingState = BookingDraft

// Booking represents a lesson booking between an instructor and a customer.
type Booking struct {
	ID             string       `bson:"id" json:"id"`                                               // Unique booking identifier (UUID)
	InstructorID   string       `bson:"instructor_id" json:"instructor_id"`                         // Instructor who is booked
	ConversationID string       `bson:"conversation_id,omitempty" json:"conversation_id,omitempty"` // Conversation the booking originated from
	CustomerRef    string       `bson:"customer_ref" json:"customer_ref"`                           // External customer identifier (e.g. phone number)
	Date           string       `bson:"date" json:"date"`                                           // Lesson date in "YYYY-MM-DD" format
	Start          int          `bson:"start" json:"start"`                                         // Start time (minutes from midnight)
	End            int          `bson:"end" json:"end"`                                             // End time (minutes from midnight)
	TotalPrice     float64      `bson:"total_price" json:"total_price"`
	State          BookingState `bson:"state" json:"state"`
	Version        int64        `bson:"version" json:"version"` // bumped by every applied transition
	CreatedAt      time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time    `bson:"updated_at" json:"updated_at"`
}
