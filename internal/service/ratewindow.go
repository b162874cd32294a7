package service

import (
	"context"
	"errors"
	"time"
)

// ErrBurstDetected is returned when an actor exceeds the permitted
// number of operations inside a trailing window. It is an abuse
// signal, reported separately from ordinary failures so operators
// can tell misuse from legitimate errors.
var ErrBurstDetected = errors.New("too many operations in a short period")

// ErrTooManyAttempts is returned when login is temporarily blocked
// after repeated failures.
var ErrTooManyAttempts = errors.New("too many failed attempts, try again later")

// ErrRateLimited is returned when a password change exceeds the
// daily allowance.
var ErrRateLimited = errors.New("rate limited")

// RateWindow counts matching audit entries in a trailing window. It
// is a pure read over the audit log: the entries themselves are
// written by the operations being counted, so the window needs no
// bookkeeping of its own and survives restarts for free.
type RateWindow struct {
	counter AuditCounter
	now     func() time.Time
}

// NewRateWindow constructs a RateWindow over the given counter.
func NewRateWindow(counter AuditCounter) *RateWindow {
	return &RateWindow{counter: counter, now: func() time.Time { return time.Now().UTC() }}
}

// Exceeded reports whether the actor has at least limit audit
// entries matching action/status inside the trailing window. The
// window is [now-window, now]; an entry exactly on the boundary
// counts as inside. status may be empty to match any outcome.
func (w *RateWindow) Exceeded(ctx context.Context, userID uint64, action, status string, window time.Duration, limit int) (bool, error) {
	since := w.now().Add(-window)
	n, err := w.counter.CountSince(ctx, userID, action, status, since)
	if err != nil {
		return false, err
	}
	return n >= limit, nil
}

// AbusePolicy bundles the trailing-window limits applied across the
// application. Constructed once in main and passed to the services
// that enforce it.
type AbusePolicy struct {
	BookingBurstLimit  int
	BookingBurstWindow time.Duration

	CancelBurstLimit  int
	CancelBurstWindow time.Duration

	LoginFailureLimit  int
	LoginFailureWindow time.Duration

	PasswordChangeLimit  int
	PasswordChangeWindow time.Duration
}

// DefaultAbusePolicy returns the limits the product ships with:
// 10 bookings / 10 min, 10 cancellations / 10 min, 5 failed logins /
// 15 min, 3 password changes / 24 h.
func DefaultAbusePolicy() AbusePolicy {
	return AbusePolicy{
		BookingBurstLimit:    10,
		BookingBurstWindow:   10 * time.Minute,
		CancelBurstLimit:     10,
		CancelBurstWindow:    10 * time.Minute,
		LoginFailureLimit:    5,
		LoginFailureWindow:   15 * time.Minute,
		PasswordChangeLimit:  3,
		PasswordChangeWindow: 24 * time.Hour,
	}
}
