package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// AuditRepo appends to and queries the audit_log table. The table is
// append-only from the application's perspective: there are no
// update or delete methods here, and none should be added. Besides
// its security-log role it backs the trailing-window abuse queries,
// so CountSince is part of the hot path for bookings and logins.
type AuditRepo struct {
	db *sql.DB
}

// NewAuditRepo returns an AuditRepo bound to the given database.
func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// Append inserts one audit entry. OccurredAt defaults to the current
// UTC time when zero. The generated id is written back to the entry.
func (r *AuditRepo) Append(ctx context.Context, e *model.AuditEntry) error {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	var userID any
	if e.UserID != nil {
		userID = *e.UserID
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (user_id, action, detail, status, ip_address, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`,
		userID, e.Action, e.Detail, e.Status, e.IPAddress, e.OccurredAt)
	if err != nil {
		return wrapStoreErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapStoreErr(err)
	}
	e.ID = uint64(id)
	return nil
}

// CountSince counts audit entries for a user matching action and
// status with occurred_at >= since. The comparison is inclusive, so
// an entry exactly on the window boundary counts as inside it.
// Status may be empty to match any outcome.
func (r *AuditRepo) CountSince(ctx context.Context, userID uint64, action, status string, since time.Time) (int, error) {
	q := `SELECT COUNT(*) FROM audit_log WHERE user_id = ? AND action = ? AND occurred_at >= ?`
	args := []any{userID, action, since.UTC()}
	if status != "" {
		q += ` AND status = ?`
		args = append(args, status)
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, wrapStoreErr(err)
	}
	return n, nil
}

// ListRecent returns the newest entries up to limit, for the admin
// audit view.
func (r *AuditRepo) ListRecent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	const q = `SELECT id, user_id, action, detail, status, ip_address, occurred_at
	           FROM audit_log ORDER BY occurred_at DESC, id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	out := make([]model.AuditEntry, 0, limit)
	for rows.Next() {
		var (
			e   model.AuditEntry
			uid sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &uid, &e.Action, &e.Detail, &e.Status, &e.IPAddress, &e.OccurredAt); err != nil {
			return nil, wrapStoreErr(err)
		}
		if uid.Valid {
			u := uint64(uid.Int64)
			e.UserID = &u
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return out, nil
}
