package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// Failure taxonomy surfaced to payment callers. The service itself
// never retries; retry policy belongs to whoever calls the gateway.
var (
	// ErrGatewayRejected maps declined / invalid-request gateway
	// responses. Not retryable as-is.
	ErrGatewayRejected = errors.New("payment rejected by gateway")
	// ErrGatewayUnavailable maps transient network conditions at the
	// gateway. Safe to retry.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	// ErrInvalidInput marks malformed amounts or missing required
	// fields, rejected before any store or gateway call.
	ErrInvalidInput = errors.New("invalid payment input")
)

// GatewayErrorCategory classifies a gateway failure.
type GatewayErrorCategory int

const (
	GatewayRejected GatewayErrorCategory = iota + 1
	GatewayUnavailable
	GatewayInvalid
)

// GatewayError is the typed error gateway clients return. The
// service maps categories onto its own sentinels so handlers never
// see gateway internals.
type GatewayError struct {
	Category GatewayErrorCategory
	Message  string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("gateway: %s", e.Message)
}

// ChargeRequest is what the gateway collaborator needs to create a
// charge. Amounts are minor units (e.g. 2000 == 20.00).
type ChargeRequest struct {
	UserID        uint64
	AmountMinor   int64
	Currency      string
	Description   string
	PaymentMethod string
}

// ChargeResult is the gateway's answer: an external transaction id
// plus a terminal or pending status.
type ChargeResult struct {
	TransactionID string
	Status        string // "succeeded", "failed" or anything else (pending)
}

// Gateway is the payment-gateway collaborator. The integration
// itself lives outside the core; only the outcome is recorded here.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (ChargeResult, error)
}

// PaymentStore is the ledger surface. *repository.PaymentRepo
// satisfies it.
type PaymentStore interface {
	Upsert(ctx context.Context, p *model.Payment) error
}

// PaymentService records payment outcomes idempotently, whether they
// arrive via the synchronous gateway response or an asynchronous
// webhook notification. Both paths share the single Upsert keyed on
// the external transaction id.
type PaymentService struct {
	payments PaymentStore
	gateway  Gateway
	audit    *Recorder
}

// NewPaymentService wires a PaymentService.
func NewPaymentService(payments PaymentStore, gateway Gateway, audit *Recorder) *PaymentService {
	if payments == nil || audit == nil {
		panic("nil dependency passed to NewPaymentService")
	}
	return &PaymentService{payments: payments, gateway: gateway, audit: audit}
}

// mapGatewayErr translates typed gateway failures into the service's
// own taxonomy. Unknown errors pass through wrapped.
func mapGatewayErr(err error) error {
	var ge *GatewayError
	if errors.As(err, &ge) {
		switch ge.Category {
		case GatewayRejected:
			return fmt.Errorf("%w: %s", ErrGatewayRejected, ge.Message)
		case GatewayInvalid:
			return fmt.Errorf("%w: %s", ErrInvalidInput, ge.Message)
		default:
			return fmt.Errorf("%w: %s", ErrGatewayUnavailable, ge.Message)
		}
	}
	return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
}

// gatewayStatus maps a gateway status string onto a ledger status.
func gatewayStatus(s string) string {
	switch strings.ToLower(s) {
	case "succeeded", "paid":
		return model.PaymentPaid
	case "failed":
		return model.PaymentFailed
	default:
		return model.PaymentPending
	}
}

// Charge validates input, calls the gateway and records the outcome.
// Validation failures return ErrInvalidInput before anything is
// touched. Gateway failures are audited and mapped onto the service
// taxonomy.
func (s *PaymentService) Charge(ctx context.Context, actor model.Actor, amountMinor int64, currency, description, methodRef string) (*model.Payment, error) {
	if amountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		return nil, fmt.Errorf("%w: currency required", ErrInvalidInput)
	}
	if strings.TrimSpace(methodRef) == "" {
		return nil, fmt.Errorf("%w: payment method required", ErrInvalidInput)
	}
	if s.gateway == nil {
		return nil, fmt.Errorf("%w: no gateway configured", ErrGatewayUnavailable)
	}

	res, err := s.gateway.CreateCharge(ctx, ChargeRequest{
		UserID:        actor.UserID,
		AmountMinor:   amountMinor,
		Currency:      currency,
		Description:   description,
		PaymentMethod: methodRef,
	})
	if err != nil {
		mapped := mapGatewayErr(err)
		s.audit.Record(ctx, &actor.UserID, model.ActionPaymentAttempt,
			fmt.Sprintf("amount=%d %s: %v", amountMinor, currency, mapped),
			model.AuditFailure, actor.IP)
		return nil, mapped
	}

	p := &model.Payment{
		UserID:     actor.UserID,
		Amount:     decimal.New(amountMinor, -2),
		Currency:   currency,
		ExternalID: res.TransactionID,
		Status:     gatewayStatus(res.Status),
	}
	if err := s.payments.Upsert(ctx, p); err != nil {
		s.audit.Record(ctx, &actor.UserID, model.ActionPaymentAttempt,
			fmt.Sprintf("txn=%s: %v", res.TransactionID, err),
			model.AuditFailure, actor.IP)
		return nil, err
	}

	s.audit.Record(ctx, &actor.UserID, model.ActionPaymentAttempt,
		fmt.Sprintf("txn=%s amount=%d %s status=%s", p.ExternalID, amountMinor, currency, p.Status),
		model.AuditSuccess, actor.IP)
	return p, nil
}

// WebhookEvent is the already-signature-verified payload delivered
// by the webhook collaborator. UserID comes from the gateway
// metadata and may be absent.
type WebhookEvent struct {
	Type          string
	TransactionID string
	AmountMinor   int64
	Currency      string
	UserID        *uint64
}

// Webhook event types handled by RecordWebhook.
const (
	EventPaymentSucceeded = "payment.succeeded"
	EventPaymentFailed    = "payment.failed"
)

// RecordWebhook reconciles an asynchronous notification into the
// ledger. Duplicate deliveries for the same transaction id update
// the existing record. A notification without a resolvable user is
// a hard failure: it is audited, no ledger action is taken and the
// owning user is never guessed.
func (s *PaymentService) RecordWebhook(ctx context.Context, ev WebhookEvent, sourceIP string) error {
	s.audit.Record(ctx, ev.UserID, model.ActionPaymentWebhook,
		fmt.Sprintf("event=%s txn=%s", ev.Type, ev.TransactionID),
		model.AuditReceived, sourceIP)

	var status string
	switch ev.Type {
	case EventPaymentSucceeded:
		status = model.PaymentPaid
	case EventPaymentFailed:
		status = model.PaymentFailed
	default:
		s.audit.Record(ctx, ev.UserID, model.ActionPaymentWebhook,
			fmt.Sprintf("unhandled event type %q txn=%s", ev.Type, ev.TransactionID),
			model.AuditWarning, sourceIP)
		return nil
	}

	if strings.TrimSpace(ev.TransactionID) == "" {
		return fmt.Errorf("%w: transaction id required", ErrInvalidInput)
	}
	if ev.UserID == nil {
		s.audit.Record(ctx, nil, model.ActionPaymentWebhook,
			fmt.Sprintf("missing user metadata for txn=%s", ev.TransactionID),
			model.AuditFailure, sourceIP)
		return fmt.Errorf("%w: missing user metadata", ErrInvalidInput)
	}

	p := &model.Payment{
		UserID:     *ev.UserID,
		Amount:     decimal.New(ev.AmountMinor, -2),
		Currency:   strings.ToLower(ev.Currency),
		ExternalID: ev.TransactionID,
		Status:     status,
	}
	if err := s.payments.Upsert(ctx, p); err != nil {
		s.audit.Record(ctx, ev.UserID, model.ActionPaymentWebhook,
			fmt.Sprintf("txn=%s: %v", ev.TransactionID, err),
			model.AuditFailure, sourceIP)
		return err
	}

	s.audit.Record(ctx, ev.UserID, model.ActionPaymentWebhook,
		fmt.Sprintf("txn=%s status=%s", ev.TransactionID, status),
		model.AuditSuccess, sourceIP)
	return nil
}
