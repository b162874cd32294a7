package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
	"github.com/Mr-Fulani/class-booking-api/internal/repository"
	"github.com/Mr-Fulani/class-booking-api/internal/service"
)

// BookingHandler exposes the member booking surface. The service
// layer owns the reservation and cancellation rules; this layer only
// binds requests and translates the failure taxonomy to HTTP codes.
type BookingHandler struct {
	Bookings *service.BookingService
	Store    *repository.BookingRepo
}

func NewBookingHandler(svc *service.BookingService, store *repository.BookingRepo) *BookingHandler {
	if svc == nil || store == nil {
		panic("nil dependency passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: svc, Store: store}
}

type bookReq struct {
	ClassID uint64 `json:"class_id"`
	Day     string `json:"day"`
}

type bookingResp struct {
	ID        uint64    `json:"id"`
	ClassID   uint64    `json:"class_id"`
	Day       string    `json:"day"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Create handles POST /v1/bookings and reserves one seat in a
// recurring slot for the authenticated member.
func (h *BookingHandler) Create(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req bookReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.ClassID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "class_id required"})
	}
	day, err := model.ParseWeekday(req.Day)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be one of Mon..Sun"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	b, err := h.Bookings.Book(ctx, actor, req.ClassID, day)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrSlotUnavailable):
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "class does not run on that day"})
		case errors.Is(err, repository.ErrDuplicateBooking):
			return c.JSON(http.StatusConflict, echo.Map{"error": "slot already booked"})
		case errors.Is(err, repository.ErrCapacityExceeded):
			return c.JSON(http.StatusConflict, echo.Map{"error": "class is full"})
		case errors.Is(err, service.ErrBurstDetected):
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many bookings, slow down"})
		case errors.Is(err, repository.ErrStoreUnavailable):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	return c.JSON(http.StatusCreated, bookingResp{
		ID:        b.ID,
		ClassID:   b.ClassID,
		Day:       string(b.Day),
		Status:    b.Status,
		CreatedAt: b.CreatedAt,
	})
}

// Cancel handles DELETE /v1/bookings/:id. Members cancel their own
// bookings; admins may cancel anyone's.
func (h *BookingHandler) Cancel(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Bookings.Cancel(ctx, actor, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, service.ErrBurstDetected):
			return c.JSON(http.StatusTooManyRequests, echo.Map{"error": "too many cancellations, slow down"})
		case errors.Is(err, repository.ErrStoreUnavailable):
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "service unavailable"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

// ListMine handles GET /v1/bookings and returns the caller's
// bookings, newest first.
func (h *BookingHandler) ListMine(c echo.Context) error {
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
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}
