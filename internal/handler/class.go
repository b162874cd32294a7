package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
	"github.com/Mr-Fulani/class-booking-api/internal/repository"
	"github.com/Mr-Fulani/class-booking-api/internal/service"
)

// ClassHandler serves the public class catalogue. Listing and seat
// availability need no authentication. The catalogue routes sit
// behind the Redis response cache when it is enabled; seat counts
// are never cached and reflect the store on every request.
type ClassHandler struct {
	Classes  *repository.ClassRepo
	Bookings *service.BookingService
}

func NewClassHandler(classes *repository.ClassRepo, bookings *service.BookingService) *ClassHandler {
	if classes == nil || bookings == nil {
		panic("nil dependency passed to NewClassHandler")
	}
	return &ClassHandler{Classes: classes, Bookings: bookings}
}

// classResp is the wire shape of a class offering.
type classResp struct {
	ID          uint64    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    time.Time `json:"schedule"`
	Capacity    uint32    `json:"capacity"`
	Days        string    `json:"days"` // canonical comma list, e.g. "Mon,Wed,Fri"
	ExtraInfo   string    `json:"extra_info,omitempty"`
}

func toClassResp(cl *model.ClassOffering) classResp {
	return classResp{
		ID:          cl.ID,
		Name:        cl.Name,
		Description: cl.Description,
		Schedule:    cl.Schedule,
		Capacity:    cl.Capacity,
		Days:        cl.Days.String(),
		ExtraInfo:   cl.ExtraInfo,
	}
}

// List handles GET /v1/classes and returns every offering ordered by
// schedule.
func (h *ClassHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Classes.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]classResp, 0, len(items))
	for _, cl := range items {
		out = append(out, toClassResp(cl))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Get handles GET /v1/classes/:id.
func (h *ClassHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	cl, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toClassResp(cl))
}

// Seats handles GET /v1/classes/:id/seats?day=Mon and reports how
// many seats remain for the recurring slot. The count never goes
// below zero even if confirmed bookings outnumber capacity.
func (h *ClassHandler) Seats(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	day, err := model.ParseWeekday(c.QueryParam("day"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "day must be one of Mon..Sun"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	remaining, err := h.Bookings.RemainingSeats(ctx, id, day)
	if err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"class_id":  id,
		"day":       day,
		"remaining": remaining,
	})
}
