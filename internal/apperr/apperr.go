// Package apperr defines the error taxonomy shared by repositories, services
// and the HTTP layer. Handlers map each type to a status code; anything else
// is an unexpected store failure and is reported as a generic 500.
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrUnauthorized is returned when no valid caller identity is present.
var ErrUnauthorized = errors.New("unauthorized")

// ValidationError reports missing or malformed input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ConflictError reports a uniqueness violation on Field.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	if e.Field == "" {
		return "record already exists"
	}
	return fmt.Sprintf("%s already in use", e.Field)
}

// NotFoundError reports an absent resource.
type NotFoundError struct {
	Resource string
	ID       any
}

func (e *NotFoundError) Error() string {
	if e.ID == nil {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// ForbiddenError reports an existing resource the caller may not touch.
type ForbiddenError struct {
	Resource string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: %s belongs to another user", e.Resource)
}

func Validation(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func Conflict(field string) error {
	return &ConflictError{Field: field}
}

func NotFound(resource string, id any) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func Forbidden(resource string) error {
	return &ForbiddenError{Resource: resource}
}

// IsNotFound reports whether err is a NotFoundError or gorm's record-not-found.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsExpected reports whether err belongs to the taxonomy, i.e. whether it is
// safe to show to the caller.
func IsExpected(err error) bool {
	var (
		v *ValidationError
		c *ConflictError
		n *NotFoundError
		f *ForbiddenError
	)
	return errors.As(err, &v) || errors.As(err, &c) || errors.As(err, &n) ||
		errors.As(err, &f) || errors.Is(err, ErrUnauthorized)
}

// uniqueFields maps index and column names to the field reported to callers.
var uniqueFields = []struct {
	needle string
	field  string
}{
	{"tax_id", "tax_id"},
	{"email", "email"},
	{"username", "username"},
}

// FromStore converts a unique-constraint violation into a ConflictError naming
// the offending field. Other errors are returned unchanged.
func FromStore(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		field := fieldFrom(pgErr.ConstraintName)
		if field == "" {
			field = fieldFrom(detailKey(pgErr.Detail))
		}
		return Conflict(field)
	}

	// SQLite: "UNIQUE constraint failed: clients.email, clients.user_id"
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		return Conflict(fieldFrom(msg))
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return Conflict("")
	}
	return err
}

func fieldFrom(s string) string {
	for _, f := range uniqueFields {
		if strings.Contains(s, f.needle) {
			return f.field
		}
	}
	return ""
}

// detailKey returns the column list of a postgres unique violation detail,
// "Key (email, user_id)=(a@b.cl, 1) already exists." -> "email, user_id".
// The conflicting values are never inspected.
func detailKey(detail string) string {
	rest, ok := strings.CutPrefix(detail, "Key (")
	if !ok {
		return ""
	}
	cols, _, ok := strings.Cut(rest, ")=")
	if !ok {
		return ""
	}
	return cols
}
