package types

import "time"

// Roles assignable to a user account. New signups default to RoleCustomer;
// RoleAdmin unlocks catalog management, order administration, and reporting.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents an account in the system.
// It contains identity, role, and audit metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address. Unique across all accounts.
	Email string `json:"email" db:"email"`

	// Role indicates the user's authorization level within the system
	// ("customer" or "admin").
	Role string `json:"role" db:"role"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
