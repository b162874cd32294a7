package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Mr-Fulani/class-booking-api/internal/model"
	"github.com/Mr-Fulani/class-booking-api/internal/repository"
	"github.com/Mr-Fulani/class-booking-api/internal/service"
)

// AdminHandler bundles everything behind the ADMIN role: class
// management, user management, the stats dashboard and the audit
// trail. Every mutation is itself audited.
type AdminHandler struct {
	Users    *repository.UserRepo
	Classes  *repository.ClassRepo
	Bookings *repository.BookingRepo
	Payments *repository.PaymentRepo
	Trail    *repository.AuditRepo
	Audit    *service.Recorder
}

func NewAdminHandler(users *repository.UserRepo, classes *repository.ClassRepo, bookings *repository.BookingRepo, payments *repository.PaymentRepo, trail *repository.AuditRepo, rec *service.Recorder) *AdminHandler {
	if users == nil || classes == nil || bookings == nil || payments == nil || trail == nil || rec == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Users: users, Classes: classes, Bookings: bookings, Payments: payments, Trail: trail, Audit: rec}
}

// ----- class management -----

type classReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Schedule    string `json:"schedule"` // RFC 3339
	Capacity    uint32 `json:"capacity"`
	Days        string `json:"days"` // comma list, e.g. "Mon,Wed,Fri"
	ExtraInfo   string `json:"extra_info"`
}

// bindClass validates a class payload into a model value.
func bindClass(c echo.Context) (*model.ClassOffering, error) {
	var req classReq
	if err := c.Bind(&req); err != nil {
		return nil, errors.New("invalid body")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, errors.New("name is required")
	}
	if req.Capacity < 1 {
		return nil, errors.New("capacity must be at least 1")
	}
	sched, err := time.Parse(time.RFC3339, req.Schedule)
	if err != nil {
		return nil, errors.New("schedule must be RFC 3339")
	}
	days, err := model.ParseWeekdaySet(req.Days)
	if err != nil {
		return nil, errors.New("days must be a comma list of Mon..Sun")
	}
	return &model.ClassOffering{
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		Schedule:    sched.UTC(),
		Capacity:    req.Capacity,
		Days:        days,
		ExtraInfo:   strings.TrimSpace(req.ExtraInfo),
	}, nil
}

// CreateClass handles POST /v1/admin/classes.
func (h *AdminHandler) CreateClass(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	cl, err := bindClass(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Classes.Create(ctx, cl); err != nil {
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "class name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create failed"})
	}
	h.Audit.Record(ctx, &actor.UserID, model.ActionAdminClass, fmt.Sprintf("created class %d (%s)", cl.ID, cl.Name), model.AuditSuccess, actor.IP)
	return c.JSON(http.StatusCreated, toClassResp(cl))
}

// UpdateClass handles PUT /v1/admin/classes/:id. Capacity may shrink
// below the current confirmed count; existing bookings keep their
// seats and the remaining count clamps at zero.
func (h *AdminHandler) UpdateClass(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	cl, err := bindClass(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	cl.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Classes.Update(ctx, cl); err != nil {
		if err == repository.ErrClassNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		}
		if strings.Contains(err.Error(), "1062") {
			return c.JSON(http.StatusConflict, echo.Map{"error": "class name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Audit.Record(ctx, &actor.UserID, model.ActionAdminClass, fmt.Sprintf("updated class %d", id), model.AuditSuccess, actor.IP)

	updated, err := h.Classes.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, toClassResp(updated))
}

// DeleteClass handles DELETE /v1/admin/classes/:id. A class with
// confirmed bookings cannot be removed.
func (h *AdminHandler) DeleteClass(c echo.Context) error {
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

	if err := h.Classes.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrClassNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "class not found"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "class has confirmed bookings"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Audit.Record(ctx, &actor.UserID, model.ActionAdminClass, fmt.Sprintf("deleted class %d", id), model.AuditSuccess, actor.IP)
	return c.NoContent(http.StatusNoContent)
}

// ----- user management -----

type adminUserResp struct {
	ID          uint64     `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ListUsers handles GET /v1/admin/users.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	users, err := h.Users.List(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]adminUserResp, 0, len(users))
	for _, u := range users {
		out = append(out, adminUserResp{
			ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role,
			IsActive: u.IsActive, LastLoginAt: u.LastLoginAt, CreatedAt: u.CreatedAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// SetRole handles PUT /v1/admin/users/:id/role with body
// {"role": "ADMIN"|"MEMBER"}. An admin cannot demote themselves, so
// the system can never lose its last administrator by accident.
func (h *AdminHandler) SetRole(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role := strings.ToUpper(strings.TrimSpace(body.Role))
	if role != model.RoleAdmin && role != model.RoleMember {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "role must be ADMIN or MEMBER"})
	}
	if id == actor.UserID && role != model.RoleAdmin {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "cannot demote yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.SetRole(ctx, id, role); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	h.Audit.Record(ctx, &actor.UserID, model.ActionAdminUser, fmt.Sprintf("set role of user %d to %s", id, role), model.AuditSuccess, actor.IP)
	return c.JSON(http.StatusOK, echo.Map{"id": id, "role": role})
}

// DeleteUser handles DELETE /v1/admin/users/:id. Self-deletion is
// rejected for the same reason as self-demotion. The user's
// bookings, payments and sessions go with them; audit entries stay.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	if id == actor.UserID {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "cannot delete yourself"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Users.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	h.Audit.Record(ctx, &actor.UserID, model.ActionAdminUser, fmt.Sprintf("deleted user %d", id), model.AuditSuccess, actor.IP)
	return c.NoContent(http.StatusNoContent)
}

// ----- dashboard -----

// Stats handles GET /v1/admin/stats: per-slot occupancy plus the sum
// of settled payments.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	occupancy, err := h.Bookings.OccupancyStats(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	total, err := h.Payments.TotalPaid(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"occupancy":  occupancy,
		"total_paid": total.StringFixed(2),
	})
}

// AuditTrail handles GET /v1/admin/audit?limit=100.
func (h *AdminHandler) AuditTrail(c echo.Context) error {
	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid limit"})
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	entries, err := h.Trail.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	out := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, echo.Map{
			"id":          e.ID,
			"user_id":     e.UserID,
			"action":      e.Action,
			"detail":      e.Detail,
			"status":      e.Status,
			"ip_address":  e.IPAddress,
			"occurred_at": e.OccurredAt,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
