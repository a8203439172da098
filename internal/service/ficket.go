// Package service hosts work that runs outside the request/response
// cycle: the ficket (appointment PDF) generator and the event publisher.
package service

import (
	"context"
	"log"
	"time"

	"github.com/barberia/reservation-backend/internal/model"
)

// StatusStore persists processing-status transitions for a reservation.
// *repository.ReservationRepo satisfies it.
type StatusStore interface {
	SetStatusByCode(ctx context.Context, code, status string) error
}

// FicketGenerator simulates the asynchronous generation of a
// reservation's appointment PDF.  Each enqueued code is handled by its
// own goroutine, independent of every other task and of the reservation
// transaction that created the row: by the time Enqueue is called the
// reservation is already committed, and nothing here can affect the
// response the caller received.
//
// Transitions move strictly forward, PENDING -> PROCESSING -> READY.
// Errors are logged and the status is left wherever it got to; there is
// no retry and no failure state.  If the process dies mid-task the row
// can stay at PROCESSING indefinitely, an accepted weakness of the
// fire-and-forget model.
type FicketGenerator struct {
	store StatusStore
	delay time.Duration
}

// NewFicketGenerator builds a generator.  delay is the simulated
// generation time between the PROCESSING and READY transitions.
func NewFicketGenerator(store StatusStore, delay time.Duration) *FicketGenerator {
	if store == nil {
		panic("nil status store passed to NewFicketGenerator")
	}
	return &FicketGenerator{store: store, delay: delay}
}

// Enqueue starts generation for an attention code and returns
// immediately.  The background task uses its own context so it is not
// cancelled when the originating HTTP request finishes.
func (g *FicketGenerator) Enqueue(code string) {
	go g.run(context.Background(), code)
}

func (g *FicketGenerator) run(ctx context.Context, code string) {
	if err := g.store.SetStatusByCode(ctx, code, model.StatusProcessing); err != nil {
		log.Printf("ficket: mark PROCESSING failed for %s: %v", code, err)
		return
	}
	time.Sleep(g.delay)
	if err := g.store.SetStatusByCode(ctx, code, model.StatusReady); err != nil {
		log.Printf("ficket: mark READY failed for %s: %v", code, err)
		return
	}
	log.Printf("ficket: generated (simulated) for reservation %s", code)
}
