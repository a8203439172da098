package model

import "time"

// Slot is one bookable time unit in the scheduling database.  Capacity is
// fixed at creation; ReservedCount is only ever changed inside the
// reservation transaction (claim) and the administrative removal path
// (release).  The invariant 0 <= ReservedCount <= TotalCapacity must hold
// after every committed transaction.
//
// Fields:
//  ID            – primary key identifier.
//  ScheduledAt   – the time this slot represents, stored in UTC.
//  TotalCapacity – number of bookings the slot can absorb.
//  ReservedCount – bookings taken so far.
type Slot struct {
	ID            uint64    `json:"id"`             // slots.id
	ScheduledAt   time.Time `json:"scheduled_at"`   // slots.scheduled_at
	TotalCapacity uint32    `json:"total_capacity"` // slots.total_capacity
	ReservedCount uint32    `json:"reserved_count"` // slots.reserved_count
}

// Available returns how many bookings the slot can still take.
func (s Slot) Available() int {
	return int(s.TotalCapacity) - int(s.ReservedCount)
}
