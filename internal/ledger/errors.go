package ledger

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation is matched by every input error the ledger returns.
var ErrValidation = errors.New("validation failed")

// RangeError reports a numeric input outside its accepted bounds.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s must be between %d and %d, got %d", e.Field, e.Min, e.Max, e.Value)
}

func (e *RangeError) Unwrap() error { return ErrValidation }

// TemporalError reports a timestamp that cannot be booked.
type TemporalError struct {
	At     time.Time
	Reason string
}

func (e *TemporalError) Error() string {
	return fmt.Sprintf("%s (requested %s)", e.Reason, e.At.Format("2006-01-02 15:04"))
}

func (e *TemporalError) Unwrap() error { return ErrValidation }
