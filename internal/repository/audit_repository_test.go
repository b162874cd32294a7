package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

func setupAuditMock(t *testing.T) (*AuditRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewAuditRepo(db), mock, func() { db.Close() }
}

const qAppendAudit = `INSERT INTO audit_log (user_id, action, detail, status, ip_address, occurred_at) VALUES (?, ?, ?, ?, ?, ?)`

func TestAuditAppend(t *testing.T) {
	t.Run("with user", func(t *testing.T) {
		repo, mock, done := setupAuditMock(t)
		defer done()

		uid := uint64(3)
		at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectExec(regexp.QuoteMeta(qAppendAudit)).
			WithArgs(uid, model.ActionLogin, "login ok", model.AuditSuccess, "10.0.0.1", at).
			WillReturnResult(sqlmock.NewResult(7, 1))

		e := &model.AuditEntry{UserID: &uid, Action: model.ActionLogin, Detail: "login ok", Status: model.AuditSuccess, IPAddress: "10.0.0.1", OccurredAt: at}
		require.NoError(t, repo.Append(context.Background(), e))
		assert.Equal(t, uint64(7), e.ID)
	})

	t.Run("anonymous entry stores null user", func(t *testing.T) {
		repo, mock, done := setupAuditMock(t)
		defer done()

		at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

		mock.ExpectExec(regexp.QuoteMeta(qAppendAudit)).
			WithArgs(nil, model.ActionLogin, "unknown email", model.AuditFailure, "10.0.0.1", at).
			WillReturnResult(sqlmock.NewResult(8, 1))

		e := &model.AuditEntry{Action: model.ActionLogin, Detail: "unknown email", Status: model.AuditFailure, IPAddress: "10.0.0.1", OccurredAt: at}
		require.NoError(t, repo.Append(context.Background(), e))
	})
}

func TestCountSince(t *testing.T) {
	since := time.Date(2025, 6, 1, 9, 45, 0, 0, time.UTC)

	t.Run("with status filter", func(t *testing.T) {
		repo, mock, done := setupAuditMock(t)
		defer done()

		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT COUNT(*) FROM audit_log WHERE user_id = ? AND action = ? AND occurred_at >= ? AND status = ?`)).
			WithArgs(uint64(3), model.ActionLogin, since, model.AuditFailure).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

		n, err := repo.CountSince(context.Background(), 3, model.ActionLogin, model.AuditFailure, since)
		require.NoError(t, err)
		assert.Equal(t, 5, n)
	})

	t.Run("empty status matches any outcome", func(t *testing.T) {
		repo, mock, done := setupAuditMock(t)
		defer done()

		mock.ExpectQuery(regexp.QuoteMeta(
			`SELECT COUNT(*) FROM audit_log WHERE user_id = ? AND action = ? AND occurred_at >= ?`)).
			WithArgs(uint64(3), model.ActionBookingCreate, since).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		n, err := repo.CountSince(context.Background(), 3, model.ActionBookingCreate, "", since)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
	})
}
