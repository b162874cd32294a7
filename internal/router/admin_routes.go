package router

import (
	"github.com/labstack/echo/v4"

	"github.com/Mr-Fulani/class-booking-api/internal/handler"
	"github.com/Mr-Fulani/class-booking-api/internal/middleware"
	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// RegisterAdmin registers the administration surface under
// /v1/admin. All routes require a valid JWT carrying the ADMIN role;
// handlers additionally guard self-targeting operations such as
// demoting or deleting one's own account.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)

	g.POST("/classes", h.CreateClass)
	g.PUT("/classes/:id", h.UpdateClass)
	g.DELETE("/classes/:id", h.DeleteClass)

	g.GET("/users", h.ListUsers)
	g.PUT("/users/:id/role", h.SetRole)
	g.DELETE("/users/:id", h.DeleteUser)

	g.GET("/stats", h.Stats)
	g.GET("/audit", h.AuditTrail)
}
