package model

import "time"

// Ficket (appointment PDF) generation states.  Transitions only move
// forward: PENDING -> PROCESSING -> READY.  There is no failure state; a
// generation error is logged and the reservation stays at whatever state
// it last reached.
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusReady      = "READY"
)

// Reservation records a confirmed booking in the scheduling database.  It
// is created atomically with the capacity claim on its slot and is never
// re-associated with a different slot afterwards.
//
// Fields:
//  ID               – primary key identifier.
//  UserID           – account that owns the booking (accounts database).
//  BarberID         – barber the customer picked.
//  SlotID           – slot whose capacity was claimed at creation time.
//  ScheduledAt      – snapshot of the slot's time taken at creation; not a
//                     live reference.
//  AttentionCode    – unique external handle used for status polling.
//  ProcessingStatus – ficket generation state, see the constants above.
//  CreatedAt        – creation timestamp.
type Reservation struct {
	ID               uint64    `json:"id"`                // reservations.id
	UserID           uint64    `json:"user_id"`           // reservations.user_id
	BarberID         uint64    `json:"barber_id"`         // reservations.barber_id
	SlotID           uint64    `json:"slot_id"`           // reservations.slot_id
	ScheduledAt      time.Time `json:"scheduled_at"`      // reservations.scheduled_at
	AttentionCode    string    `json:"attention_code"`    // reservations.attention_code
	ProcessingStatus string    `json:"processing_status"` // reservations.processing_status
	CreatedAt        time.Time `json:"created_at"`        // reservations.created_at
}

// ReservationDetail is a Reservation joined with the barber's display
// fields for listing endpoints.  Admin listings additionally carry the
// customer's name and email fetched best-effort from the accounts database.
type ReservationDetail struct {
	Reservation
	BarberName      string `json:"barber_name"`
	BarberSpecialty string `json:"barber_specialty"`
	CustomerName    string `json:"customer_name,omitempty"`
	CustomerEmail   string `json:"customer_email,omitempty"`
}
