package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/barberia/reservation-backend/internal/model"
)

// SlotRepo provides data access to the slots table, which acts as the
// capacity ledger for bookable time units.  Reads are lock-free; the
// claim path runs inside a caller-owned transaction so the row lock is
// held exactly for the read-check-increment sequence and released on
// commit or rollback.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo returns a SlotRepo bound to the scheduling database.
func NewSlotRepo(db *sql.DB) *SlotRepo { return &SlotRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span slots and reservations.
func (r *SlotRepo) DB() *sql.DB { return r.db }

// List returns all slots ordered by their scheduled time.  No locking is
// taken; readers may observe a reserved count that a concurrent claim is
// about to change, which is fine for a listing.
func (r *SlotRepo) List(ctx context.Context) ([]model.Slot, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, scheduled_at, total_capacity, reserved_count
		 FROM slots ORDER BY scheduled_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	slots := make([]model.Slot, 0)
	for rows.Next() {
		var s model.Slot
		if err := rows.Scan(&s.ID, &s.ScheduledAt, &s.TotalCapacity, &s.ReservedCount); err != nil {
			return nil, err
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// Create inserts a new slot with the given time and capacity and returns
// its id.  Used by the administrative surface; reserved_count starts at 0.
func (r *SlotRepo) Create(ctx context.Context, scheduledAt time.Time, totalCapacity uint32) (uint64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO slots (scheduled_at, total_capacity, reserved_count) VALUES (?, ?, 0)`,
		scheduledAt.UTC().Format("2006-01-02 15:04:05"), totalCapacity)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// ClaimTx atomically claims one unit of capacity on a slot.  It locks the
// row with SELECT ... FOR UPDATE so concurrent claimants of the same slot
// serialize on the read-check-increment sequence; claims on distinct
// slots do not block each other.  The lock is held until the caller
// commits or rolls back tx.  It returns the slot's scheduled time so the
// reservation can snapshot it, ErrSlotNotFound when the row is absent and
// ErrNoCapacity when no capacity remains.
func (r *SlotRepo) ClaimTx(ctx context.Context, tx *sql.Tx, slotID uint64) (time.Time, error) {
	var (
		scheduledAt   time.Time
		totalCapacity uint32
		reservedCount uint32
	)
	err := tx.QueryRowContext(ctx,
		`SELECT scheduled_at, total_capacity, reserved_count
		 FROM slots WHERE id = ? FOR UPDATE`, slotID).
		Scan(&scheduledAt, &totalCapacity, &reservedCount)
	if err == sql.ErrNoRows {
		return time.Time{}, ErrSlotNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	if int(totalCapacity)-int(reservedCount) <= 0 {
		return time.Time{}, ErrNoCapacity
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE slots SET reserved_count = reserved_count + 1 WHERE id = ?`, slotID); err != nil {
		return time.Time{}, err
	}
	return scheduledAt, nil
}

// ReleaseTx gives one unit of capacity back, flooring at zero.  The slot
// may have been adjusted or removed since the reservation was made, so a
// missing row is not an error and an already-zero count stays zero (the
// reserved_count > 0 guard makes the update a no-op in both cases, and
// avoids unsigned underflow).
func (r *SlotRepo) ReleaseTx(ctx context.Context, tx *sql.Tx, slotID uint64) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE slots SET reserved_count = reserved_count - 1 WHERE id = ? AND reserved_count > 0`,
		slotID)
	return err
}
