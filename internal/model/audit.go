package model

import "time"

// Audit outcome values recorded in audit_log.status.
const (
	AuditSuccess  = "success"
	AuditFailure  = "failure"
	AuditWarning  = "warning"
	AuditReceived = "received"
)

// Audit action names. Kept as constants so the trailing-window
// queries and the writers always agree on the exact strings.
const (
	ActionLogin          = "auth.login"
	ActionRegister       = "auth.register"
	ActionPasswordChange = "auth.password_change"
	ActionBookingCreate  = "booking.create"
	ActionBookingCancel  = "booking.cancel"
	ActionPaymentAttempt = "payment.attempt"
	ActionPaymentWebhook = "payment.webhook"
	ActionAdminClass     = "admin.class"
	ActionAdminUser      = "admin.user"
)

// AuditEntry is one immutable row of the `audit_log` table. Entries
// are append-only: application code never updates or deletes them.
// UserID is nil for anonymous or system events (e.g. webhooks without
// a resolvable user). The same table doubles as the data source for
// abuse-rate queries, so OccurredAt is always UTC.
type AuditEntry struct {
	ID         uint64    // audit_log.id
	UserID     *uint64   // audit_log.user_id (nullable)
	Action     string    // audit_log.action
	Detail     string    // audit_log.detail (free text, may be empty)
	Status     string    // audit_log.status
	IPAddress  string    // audit_log.ip_address
	OccurredAt time.Time // audit_log.occurred_at
}
