package types

import "time"

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user.
	ID int64 `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's email address, unique across accounts.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the hashed representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Roles holds the names of the roles assigned to the user.
	// Roles are seeded reference data; the set is unordered.
	Roles []string `json:"roles"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Role is a named permission tag. Roles are provisioned at deploy time
// and never created by the application.
type Role struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Principal is the resolved identity behind a single request: the token
// subject plus the user's current role set. It is rebuilt from the store
// on every request and lives only for the request's duration.
type Principal struct {
	Subject string
	Roles   []string
}

// HasAnyRole reports whether the principal holds at least one of the
// given role names.
func (p Principal) HasAnyRole(names ...string) bool {
	for _, name := range names {
		for _, role := range p.Roles {
			if role == name {
				return true
			}
		}
	}
	return false
}
