package model

import "time"

// User is an account stored in the accounts database.  Users register
// through the public auth endpoints and authenticate with email and
// password.  The Role field separates regular customers from the
// administrator surface.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name of the account holder.
//  Email        – unique login identifier, stored lowercased.
//  PasswordHash – bcrypt digest of the password; never serialized.
//  Phone        – optional contact number.
//  Role         – CUSTOMER or ADMIN.
//  CreatedAt    – registration timestamp.
type User struct {
	ID           uint64    `json:"id"`         // users.id
	Name         string    `json:"name"`       // users.name
	Email        string    `json:"email"`      // users.email
	PasswordHash string    `json:"-"`          // users.password_hash
	Phone        *string   `json:"phone"`      // users.phone (nullable)
	Role         string    `json:"role"`       // users.role
	CreatedAt    time.Time `json:"created_at"` // users.created_at
}

// Roles accepted in the users.role column and the JWT role claim.
const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)
