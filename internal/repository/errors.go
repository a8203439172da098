// Package repository implements data access for the two MySQL databases:
// the accounts database (users, refresh tokens) and the scheduling
// database (barbers, slots, reservations).  Sentinel errors defined here
// let handlers translate failures into specific HTTP statuses without
// inspecting driver errors.
package repository

import "errors"

// ErrSlotNotFound is returned when a claim targets a slot id that does
// not exist.  Handlers translate this into HTTP 404.
var ErrSlotNotFound = errors.New("slot not found")

// ErrNoCapacity is returned when a slot has no remaining capacity at the
// moment the row lock was held.  Handlers translate this into HTTP 409.
var ErrNoCapacity = errors.New("no capacity left for slot")

// ErrReservationNotFound is returned when a reservation or attention code
// cannot be resolved.  Handlers translate this into HTTP 404.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrEmailExists is returned when registering with an email that is
// already taken.  Handlers translate this into HTTP 409.
var ErrEmailExists = errors.New("email already exists")
