package booking

import (
	"errors"
	"fmt"
)

// ErrForbidden is returned when an administrative operation is attempted
// without an admin identity.  Handlers translate it into HTTP 403.
var ErrForbidden = errors.New("admin identity required")

// ErrRecordNotFound is returned by stores when a reservation id does not
// exist.  The engine converts it into a NotFoundError.
var ErrRecordNotFound = errors.New("reservation record not found")

// ErrSlotBusy is returned by a Locker that could not obtain a slot within
// its wait budget.
var ErrSlotBusy = errors.New("slot busy")

// ValidationError reports missing or malformed input.  It is never retried.
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

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ConflictError reports that a slot is still exclusively held after
// resolution, or that the slot is busy with a concurrent resolution.
type ConflictError struct {
	Venue string
	Date  string
	Time  string
	// Busy is set when the slot lock could not be obtained in time.
	Busy bool
}

func (e *ConflictError) Error() string {
	if e.Busy {
		return fmt.Sprintf("slot %s at %s is being modified by another request, try again", e.Date, e.Time)
	}
	return fmt.Sprintf("venue unavailable: %s is already booked on %s at %s", e.Venue, e.Date, e.Time)
}

// NotFoundError reports an unknown reservation id.
type NotFoundError struct {
	ID uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("reservation %d not found", e.ID)
}

// PersistenceError wraps a storage failure.  Writes performed earlier in
// the same resolution are rolled back by the store transaction.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// persistence wraps err unless it already belongs to the engine taxonomy.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		ce *ConflictError
		ne *NotFoundError
		pe *PersistenceError
	)
	if errors.As(err, &ve) || errors.As(err, &ce) || errors.As(err, &ne) || errors.As(err, &pe) || errors.Is(err, ErrForbidden) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
