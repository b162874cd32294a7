package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status values. pending comes from a gateway response that
// has not reached a terminal state yet; paid and failed are terminal.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Payment mirrors the `payments` table. ExternalID is the gateway's
// transaction identifier and is unique: a second notification for
// the same id updates the existing row instead of inserting a
// duplicate. Amount is a minor-unit-safe decimal (DECIMAL(10,2)).
type Payment struct {
	ID         uint64          // payments.id
	UserID     uint64          // payments.user_id
	Amount     decimal.Decimal // payments.amount
	Currency   string          // payments.currency
	ExternalID string          // payments.external_id (unique)
	Status     string          // payments.status
	CreatedAt  time.Time       // payments.created_at
	UpdatedAt  time.Time       // payments.updated_at
}
