package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/barberia/reservation-backend/internal/model"
	"github.com/barberia/reservation-backend/internal/utils"
)

// mysqlDupEntry is the MySQL errno for a unique-key violation.
const mysqlDupEntry = 1062

// UserRepo provides data access to the users table in the accounts
// database.
type UserRepo struct{ DB *sql.DB }

// NewUserRepo returns a UserRepo bound to the accounts database.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create hashes the password and inserts a user, returning its id.  A
// duplicate email surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, name, email, password string, phone *string, role string, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (name, email, password_hash, phone, role) VALUES (?,?,?,?,?)`,
		name, email, hash, phone, role)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

const userColumns = `id, name, email, password_hash, phone, role, created_at`

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ? LIMIT 1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt)
	return u, err
}

// List returns all users ordered by registration time, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Phone, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UserUpdate lists the optional fields an administrator may change on a
// user.  Nil fields are left untouched; Password, when set, is re-hashed.
type UserUpdate struct {
	Name     *string
	Email    *string
	Password *string
	Phone    *string
}

// Update applies a partial update to a user.  Returns sql.ErrNoRows when
// nothing was requested so the handler can reject empty bodies.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate, cost int) error {
	sets := make([]string, 0, 4)
	args := make([]interface{}, 0, 5)
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Email != nil {
		sets = append(sets, "email = ?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.Password != nil {
		hash, err := utils.HashPassword(*upd.Password, cost)
		if err != nil {
			return err
		}
		sets = append(sets, "password_hash = ?")
		args = append(args, hash)
	}
	if upd.Phone != nil {
		sets = append(sets, "phone = ?")
		args = append(args, *upd.Phone)
	}
	if len(sets) == 0 {
		return sql.ErrNoRows
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlDupEntry {
			return ErrEmailExists
		}
	}
	return err
}

// Delete removes a user row.  Deleting an absent id is a no-op.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	return err
}
