package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/barberia/reservation-backend/internal/model"
)

// ReservationRepo provides data access to the reservations table.  The
// create and delete paths take a caller-owned transaction so they commit
// or roll back together with the capacity ledger mutation; everything
// else runs on the plain pool.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to the scheduling
// database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

// CreateTx inserts a reservation within the provided transaction and
// populates res.ID.  The caller must have already claimed capacity on
// res.SlotID inside the same transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
	out, err := tx.ExecContext(ctx,
		`INSERT INTO reservations
		   (user_id, barber_id, slot_id, scheduled_at, attention_code, processing_status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		res.UserID, res.BarberID, res.SlotID,
		res.ScheduledAt.UTC().Format("2006-01-02 15:04:05"),
		res.AttentionCode, res.ProcessingStatus)
	if err != nil {
		return err
	}
	id, err := out.LastInsertId()
	if err != nil {
		return err
	}
	res.ID = uint64(id)
	return nil
}

// StatusByCode returns the processing status for an attention code.
func (r *ReservationRepo) StatusByCode(ctx context.Context, code string) (string, error) {
	var status string
	err := r.db.QueryRowContext(ctx,
		`SELECT processing_status FROM reservations WHERE attention_code = ? LIMIT 1`, code).
		Scan(&status)
	if err == sql.ErrNoRows {
		return "", ErrReservationNotFound
	}
	return status, err
}

// SetStatusByCode persists a new processing status for an attention code.
// It is called only by the ficket generator, which moves the status
// strictly forward; no guard is needed here because transitions never
// compete in normal operation.
func (r *ReservationRepo) SetStatusByCode(ctx context.Context, code, status string) error {
	out, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET processing_status = ? WHERE attention_code = ?`, status, code)
	if err != nil {
		return err
	}
	if n, err := out.RowsAffected(); err == nil && n == 0 {
		return ErrReservationNotFound
	}
	return nil
}

const detailColumns = `r.id, r.user_id, r.barber_id, r.slot_id, r.scheduled_at,
	       r.attention_code, r.processing_status, r.created_at,
	       COALESCE(b.name, ''), COALESCE(b.specialty, '')`

// ListByUser returns the reservations owned by a user, newest appointment
// first, joined with the barber's display fields.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]model.ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+detailColumns+`
		 FROM reservations r
		 LEFT JOIN barbers b ON r.barber_id = b.id
		 WHERE r.user_id = ?
		 ORDER BY r.scheduled_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return scanDetails(rows)
}

// ListByBarber returns the reservations assigned to a barber, newest
// appointment first.
func (r *ReservationRepo) ListByBarber(ctx context.Context, barberID uint64) ([]model.ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+detailColumns+`
		 FROM reservations r
		 LEFT JOIN barbers b ON r.barber_id = b.id
		 WHERE r.barber_id = ?
		 ORDER BY r.scheduled_at DESC`, barberID)
	if err != nil {
		return nil, err
	}
	return scanDetails(rows)
}

// ListAll returns every reservation with barber display fields, newest
// appointment first.  Customer names are filled in by the handler from
// the accounts database.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]model.ReservationDetail, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+detailColumns+`
		 FROM reservations r
		 LEFT JOIN barbers b ON r.barber_id = b.id
		 ORDER BY r.scheduled_at DESC`)
	if err != nil {
		return nil, err
	}
	return scanDetails(rows)
}

func scanDetails(rows *sql.Rows) ([]model.ReservationDetail, error) {
	defer rows.Close()
	details := make([]model.ReservationDetail, 0)
	for rows.Next() {
		var d model.ReservationDetail
		if err := rows.Scan(&d.ID, &d.UserID, &d.BarberID, &d.SlotID, &d.ScheduledAt,
			&d.AttentionCode, &d.ProcessingStatus, &d.CreatedAt,
			&d.BarberName, &d.BarberSpecialty); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// SlotIDForUpdateTx locks a reservation row and returns the slot it
// claimed capacity from.  Used by the administrative removal path so the
// capacity release and the delete see the same row.
func (r *ReservationRepo) SlotIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (uint64, error) {
	var slotID uint64
	err := tx.QueryRowContext(ctx,
		`SELECT slot_id FROM reservations WHERE id = ? FOR UPDATE`, id).Scan(&slotID)
	if err == sql.ErrNoRows {
		return 0, ErrReservationNotFound
	}
	return slotID, err
}

// DeleteTx removes a reservation within the provided transaction.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
	return err
}

// UpdateAdmin rewrites the mutable administrative fields of a
// reservation.  Nil arguments leave the corresponding column untouched;
// at least one must be set (validated by the handler).  Changing the
// appointment time does not touch any slot: the scheduled_at column is a
// snapshot, and the capacity stays with the originally claimed slot.
func (r *ReservationRepo) UpdateAdmin(ctx context.Context, id uint64, barberID *uint64, scheduledAt *time.Time) error {
	query := `UPDATE reservations SET `
	args := make([]interface{}, 0, 3)
	if barberID != nil {
		query += `barber_id = ?`
		args = append(args, *barberID)
	}
	if scheduledAt != nil {
		if len(args) > 0 {
			query += `, `
		}
		query += `scheduled_at = ?`
		args = append(args, scheduledAt.UTC().Format("2006-01-02 15:04:05"))
	}
	query += ` WHERE id = ?`
	args = append(args, id)
	// RowsAffected is not checked: MySQL reports 0 when the new values
	// equal the old ones, which is not a missing row.
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
