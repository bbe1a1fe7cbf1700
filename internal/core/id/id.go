// Package id provides UUIDv7 identifiers for stock items, work orders and ledger rows.
package id

import (
	"github.com/google/uuid"

	"foodprod/internal/core/apperror"
)

// ID is a type alias for UUID, used across all entities.
type ID = uuid.UUID

// New generates a new UUIDv7. Ledger rows created in the same
// millisecond still sort by creation order.
func New() ID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}

// Parse converts string to ID with validation.
func Parse(s string) (ID, error) {
	return uuid.Parse(s)
}

// ParseField parses s and reports a validation error naming the field.
func ParseField(field, s string) (ID, error) {
	if s == "" {
		return uuid.Nil, apperror.NewValidation(field+" is required").WithDetail("field", field)
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, apperror.NewValidation("invalid "+field+" format").
			WithDetail("field", field).
			WithDetail("value", s)
	}
	return parsed, nil
}

// Nil returns zero-value UUID.
func Nil() ID {
	return uuid.Nil
}

// IsNil checks if ID is zero-value.
func IsNil(id ID) bool {
	return id == uuid.Nil
}
