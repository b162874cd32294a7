// Package repository defines error values that are reused across
// multiple repositories. These sentinel values allow higher layers
// such as services and handlers to distinguish failure scenarios
// with errors.Is instead of inspecting driver errors. The booking
// sentinels map one-to-one onto the reservation failure taxonomy
// surfaced to API callers.
package repository

import (
	"context"
	"errors"
	"fmt"
)

// ErrForbidden is returned when the caller attempts an operation on
// a resource they do not own. Handlers translate this into 403.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a delete or update cannot proceed
// because of dependent state, such as deleting a class that still
// has confirmed bookings. Handlers translate this into 409.
var ErrConflict = errors.New("conflict")

// ErrSlotUnavailable is returned when a booking names a weekday the
// class does not recur on.
var ErrSlotUnavailable = errors.New("class does not recur on this day")

// ErrDuplicateBooking is returned when the user already holds a
// confirmed booking for the same (class, day) slot.
var ErrDuplicateBooking = errors.New("slot already booked by user")

// ErrCapacityExceeded is returned when no seats remain for the slot
// at the time the reservation transaction evaluates capacity.
var ErrCapacityExceeded = errors.New("class capacity exceeded")

// ErrStoreUnavailable wraps store timeouts and connectivity
// failures. It is retryable from the caller's point of view and is
// translated into 503, never silently swallowed.
var ErrStoreUnavailable = errors.New("store unavailable")

// wrapStoreErr classifies infrastructure-level failures as
// ErrStoreUnavailable while leaving business sentinels and row
// lookup misses untouched.
func wrapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
