package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidRange    = errors.New("start must be before end")
	ErrConflict        = errors.New("slot already booked")
	ErrNotFound        = errors.New("not found")
	ErrTooLate         = errors.New("slot has already started")
	ErrSchema          = errors.New("stored record does not match expected shape")

	ErrInvalidDateTime = fmt.Errorf("%w: invalid datetime", ErrInvalidInput)
	ErrSlotNotBookable = fmt.Errorf("%w: slot is not open for booking", ErrInvalidInput)
)

// StoreError wraps an unexpected failure reported by the data store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Op == "" {
		return "store: " + e.Err.Error()
	}
	return "store: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error { return e.Err }

// WrapStore returns err unchanged when it already belongs to the taxonomy,
// otherwise wraps it as a StoreError.
func WrapStore(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	for _, known := range []error{ErrConflict, ErrNotFound, ErrSchema} {
		if errors.Is(err, known) {
			return err
		}
	}
	return &StoreError{Op: op, Err: err}
}
