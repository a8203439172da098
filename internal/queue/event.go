// Package queue defines message payloads exchanged over the message
// broker and the background consumer that processes them.
package queue

// ReservationConfirmedEvent is published after a reservation transaction
// commits.  It carries enough information for downstream consumers to
// log or notify without querying the scheduling database.
type ReservationConfirmedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	BarberID      uint64 `json:"barber_id"`
	SlotID        uint64 `json:"slot_id"`
	AttentionCode string `json:"attention_code"`
	ScheduledAt   string `json:"scheduled_at"`
	ConfirmedAt   string `json:"confirmed_at"`
}
