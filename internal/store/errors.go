package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateUsername and ErrDuplicateEmail are returned when an insert
// hits the corresponding unique index. Uniqueness is enforced by the
// database, so two concurrent registrations race safely: at most one
// commits, the other sees the constraint violation.
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
)

// ErrReferencedByInvoices is returned when deleting a customer that still
// has invoices pointing at it.
var ErrReferencedByInvoices = errors.New("customer has existing invoices")

const pqUniqueViolation = "23505"
const pqForeignKeyViolation = "23503"

func uniqueViolation(err error) (constraint string, ok bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}

func foreignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation
}
