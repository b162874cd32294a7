package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

func setupPaymentMock(t *testing.T) (*PaymentRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewPaymentRepo(db), mock, func() { db.Close() }
}

const (
	qUpsertPayment = `INSERT INTO payments (user_id, amount, currency, external_id, status) VALUES (?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE status = VALUES(status), updated_at = CURRENT_TIMESTAMP`
	qByExternal    = `SELECT id, user_id, amount, currency, external_id, status, created_at, updated_at FROM payments WHERE external_id = ?`
)

func paymentRows(id uint64, status string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "user_id", "amount", "currency", "external_id", "status", "created_at", "updated_at"}).
		AddRow(id, 3, "20.00", "eur", "txn_123", status, now, now)
}

func TestUpsertInsertsNewPayment(t *testing.T) {
	repo, mock, done := setupPaymentMock(t)
	defer done()

	now := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta(qUpsertPayment)).
		WithArgs(uint64(3), "20.00", "eur", "txn_123", model.PaymentPending).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery(regexp.QuoteMeta(qByExternal)).
		WithArgs("txn_123").
		WillReturnRows(paymentRows(1, model.PaymentPending, now))

	p := &model.Payment{
		UserID:     3,
		Amount:     decimal.New(2000, -2),
		Currency:   "eur",
		ExternalID: "txn_123",
		Status:     model.PaymentPending,
	}
	require.NoError(t, repo.Upsert(context.Background(), p))
	assert.Equal(t, uint64(1), p.ID)
	assert.Equal(t, "20.00", p.Amount.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertIsIdempotentByExternalID(t *testing.T) {
	repo, mock, done := setupPaymentMock(t)
	defer done()

	now := time.Now().UTC()

	// A webhook redelivery for the same transaction id lands on the
	// ON DUPLICATE KEY path: 2 affected rows in MySQL, same row back.
	mock.ExpectExec(regexp.QuoteMeta(qUpsertPayment)).
		WithArgs(uint64(3), "20.00", "eur", "txn_123", model.PaymentPaid).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectQuery(regexp.QuoteMeta(qByExternal)).
		WithArgs("txn_123").
		WillReturnRows(paymentRows(1, model.PaymentPaid, now))

	p := &model.Payment{
		UserID:     3,
		Amount:     decimal.New(2000, -2),
		Currency:   "eur",
		ExternalID: "txn_123",
		Status:     model.PaymentPaid,
	}
	require.NoError(t, repo.Upsert(context.Background(), p))
	assert.Equal(t, uint64(1), p.ID)
	assert.Equal(t, model.PaymentPaid, p.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByExternalIDNotFound(t *testing.T) {
	repo, mock, done := setupPaymentMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(qByExternal)).
		WithArgs("txn_missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "amount", "currency", "external_id", "status", "created_at", "updated_at"}))

	_, err := repo.GetByExternalID(context.Background(), "txn_missing")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestTotalPaid(t *testing.T) {
	repo, mock, done := setupPaymentMock(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = ?`)).
		WithArgs(model.PaymentPaid).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow("125.50"))

	total, err := repo.TotalPaid(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "125.50", total.StringFixed(2))
}
