package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// ErrPaymentNotFound is returned when a payment cannot be found.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepo persists payment records keyed by the gateway's
// external transaction id. payments.external_id carries a UNIQUE
// constraint, which makes Upsert the single write path for both
// synchronous gateway confirmations and asynchronous webhook
// notifications: a second delivery of the same id updates the
// existing row instead of inserting a duplicate.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = "id, user_id, amount, currency, external_id, status, created_at, updated_at"

// Upsert inserts a payment record or, when a row with the same
// external_id already exists, updates its status to reflect the
// latest notification. The populated row is returned.
func (r *PaymentRepo) Upsert(ctx context.Context, p *model.Payment) error {
	const q = `INSERT INTO payments (user_id, amount, currency, external_id, status)
	           VALUES (?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE status = VALUES(status), updated_at = CURRENT_TIMESTAMP`
	_, err := r.db.ExecContext(ctx, q,
		p.UserID, p.Amount.StringFixed(2), p.Currency, p.ExternalID, p.Status)
	if err != nil {
		return wrapStoreErr(err)
	}
	stored, err := r.GetByExternalID(ctx, p.ExternalID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

// GetByExternalID fetches a payment by its gateway transaction id.
func (r *PaymentRepo) GetByExternalID(ctx context.Context, externalID string) (*model.Payment, error) {
	const q = "SELECT " + paymentColumns + " FROM payments WHERE external_id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, q, externalID))
}

// GetByID fetches a payment by primary key.
func (r *PaymentRepo) GetByID(ctx context.Context, id uint64) (*model.Payment, error) {
	const q = "SELECT " + paymentColumns + " FROM payments WHERE id = ?"
	return r.scanOne(r.db.QueryRowContext(ctx, q, id))
}

func (r *PaymentRepo) scanOne(row *sql.Row) (*model.Payment, error) {
	var (
		p      model.Payment
		amount string
	)
	err := row.Scan(&p.ID, &p.UserID, &amount, &p.Currency, &p.ExternalID, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, wrapStoreErr(err)
	}
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, err
	}
	p.Amount = amt
	return &p, nil
}

// ListByUser returns all payments for a user, newest first.
func (r *PaymentRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Payment, error) {
	const q = "SELECT " + paymentColumns + " FROM payments WHERE user_id = ? ORDER BY created_at DESC"
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	defer rows.Close()

	out := make([]*model.Payment, 0)
	for rows.Next() {
		var (
			p      model.Payment
			amount string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &amount, &p.Currency, &p.ExternalID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, wrapStoreErr(err)
		}
		amt, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, err
		}
		p.Amount = amt
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreErr(err)
	}
	return out, nil
}

// TotalPaid sums the amounts of all payments in status paid. Used by
// the admin statistics endpoint.
func (r *PaymentRepo) TotalPaid(ctx context.Context) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = ?`
	var total string
	if err := r.db.QueryRowContext(ctx, q, model.PaymentPaid).Scan(&total); err != nil {
		return decimal.Zero, wrapStoreErr(err)
	}
	return decimal.NewFromString(total)
}
