package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Mr-Fulani/class-booking-api/internal/repository"
	"github.com/Mr-Fulani/class-booking-api/internal/service"
)

// PaymentHandler exposes the payment surface: synchronous charges
// for authenticated members plus the unauthenticated gateway
// webhook. The webhook route must be registered outside the JWT
// group; gateway calls carry no user session.
type PaymentHandler struct {
	Payments *service.PaymentService
	Store    *repository.PaymentRepo
}

func NewPaymentHandler(svc *service.PaymentService, store *repository.PaymentRepo) *PaymentHandler {
	if svc == nil || store == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{Payments: svc, Store: store}
}

type chargeReq struct {
	AmountMinor   int64  `json:"amount_minor"` // e.g. 2000 == 20.00
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	PaymentMethod string `json:"payment_method"`
}

// Charge handles POST /v1/payments and runs a synchronous charge
// through the gateway, recording the outcome in the ledger.
func (h *PaymentHandler) Charge(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req chargeReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	// Gateway calls can legitimately take longer than DB-only paths.
	ctx, cancel := context.WithTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	p, err := h.Payments.Charge(ctx, actor, req.AmountMinor, req.Currency, req.Description, req.PaymentMethod)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payment input"})
		case errors.Is(err, service.ErrGatewayRejected):
			return c.JSON(http.StatusPaymentRequired, echo.Map{"error": "payment rejected"})
		case errors.Is(err, service.ErrGatewayUnavailable):
			return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable, try again"})
		case errors.Is(err, repository.ErrStoreUnavailable):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "payment failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":          p.ID,
		"external_id": p.ExternalID,
		"amount":      p.Amount.StringFixed(2),
		"currency":    p.Currency,
		"status":      p.Status,
	})
}

// ListMine handles GET /v1/payments.
func (h *PaymentHandler) ListMine(c echo.Context) error {
	uid, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Store.ListByUser(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]echo.Map, 0, len(items))
	for _, p := range items {
		out = append(out, echo.Map{
			"id":          p.ID,
			"external_id": p.ExternalID,
			"amount":      p.Amount.StringFixed(2),
			"currency":    p.Currency,
			"status":      p.Status,
			"created_at":  p.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// webhookBody mirrors the gateway's event envelope. The user id
// rides in the charge metadata set by the charge client.
type webhookBody struct {
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID       string            `json:"id"`
			Amount   int64             `json:"amount"`
			Currency string            `json:"currency"`
			Metadata map[string]string `json:"metadata"`
		} `json:"object"`
	} `json:"data"`
}

// Webhook handles POST /v1/payments/webhook. Unknown event types
// are acknowledged so the gateway stops retrying them; events
// without resolvable user metadata are rejected and handled by the
// operator off the audit trail.
func (h *PaymentHandler) Webhook(c echo.Context) error {
	var body webhookBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ev := service.WebhookEvent{
		Type:          strings.TrimSpace(body.Type),
		TransactionID: strings.TrimSpace(body.Data.Object.ID),
		AmountMinor:   body.Data.Object.Amount,
		Currency:      body.Data.Object.Currency,
	}
	if raw, ok := body.Data.Object.Metadata["user_id"]; ok {
		if uid, err := strconv.ParseUint(raw, 10, 64); err == nil && uid > 0 {
			ev.UserID = &uid
		}
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Payments.RecordWebhook(ctx, ev, c.RealIP()); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInput):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unprocessable event"})
		case errors.Is(err, repository.ErrStoreUnavailable):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "webhook failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"received": true})
}
