// Package service contains the business logic for bookings, payments
// and abuse detection. Services are constructed explicitly with their
// dependencies (no package-level singletons) so tests can substitute
// fakes per case.
package service

import (
	"context"
	"log"
	"time"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// AuditAppender is the write side of the audit log.
type AuditAppender interface {
	Append(ctx context.Context, e *model.AuditEntry) error
}

// AuditCounter is the query side used by trailing-window checks.
type AuditCounter interface {
	CountSince(ctx context.Context, userID uint64, action, status string, since time.Time) (int, error)
}

// Recorder writes audit entries on a best-effort basis. The audit
// trail must never break a primary operation: append failures are
// logged and swallowed. Callers that need the write to succeed (none
// today) should use the repository directly.
type Recorder struct {
	store AuditAppender
}

// NewRecorder constructs a Recorder over the given store.
func NewRecorder(store AuditAppender) *Recorder {
	return &Recorder{store: store}
}

// Record appends one audit entry. actor may be nil for anonymous or
// system events. Errors are logged, never returned.
func (r *Recorder) Record(ctx context.Context, actor *uint64, action, detail, status, ip string) {
	e := &model.AuditEntry{
		UserID:     actor,
		Action:     action,
		Detail:     detail,
		Status:     status,
		IPAddress:  ip,
		OccurredAt: time.Now().UTC(),
	}
	if err := r.store.Append(ctx, e); err != nil {
		log.Printf("audit: append failed (action=%s status=%s): %v", action, status, err)
	}
}
