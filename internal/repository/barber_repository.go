package repository

import (
	"context"
	"database/sql"

	"github.com/barberia/reservation-backend/internal/model"
)

// BarberRepo provides read access to the barbers table.
type BarberRepo struct {
	db *sql.DB
}

// NewBarberRepo returns a BarberRepo bound to the scheduling database.
func NewBarberRepo(db *sql.DB) *BarberRepo { return &BarberRepo{db: db} }

// List returns all barbers ordered by name.
func (r *BarberRepo) List(ctx context.Context) ([]model.Barber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, specialty FROM barbers ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	barbers := make([]model.Barber, 0)
	for rows.Next() {
		var b model.Barber
		if err := rows.Scan(&b.ID, &b.Name, &b.Specialty); err != nil {
			return nil, err
		}
		barbers = append(barbers, b)
	}
	return barbers, rows.Err()
}

// Exists reports whether a barber with the given id is present.
func (r *BarberRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM barbers WHERE id = ? LIMIT 1`, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
