package contracts

import (
	"errors"
	"fmt"
)

// Failure taxonomy shared by scoring, combination search and the embedding layers.
// Callers match with errors.Is.
var (
	ErrInvalidProfile  = errors.New("invalid strategy profile")
	ErrInvalidSnapshot = errors.New("invalid item snapshot")
	ErrInvalidParams   = errors.New("invalid search parameters")
	ErrPoolTooLarge    = errors.New("candidate pool too large")
	ErrEmptyInput      = errors.New("empty input")
)

// FieldError pins a validation failure to one field
type FieldError struct {
	Field   string
	Message string
	Err     error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Field, e.Message)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
