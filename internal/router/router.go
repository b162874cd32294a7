package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/Mr-Fulani/class-booking-api/internal/handler"
	"github.com/Mr-Fulani/class-booking-api/internal/middleware"
	"github.com/Mr-Fulani/class-booking-api/internal/model"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers authentication routes. Unauthenticated
// operations live under /v1/auth; session-bound endpoints live under
// /v1 behind the JWT middleware.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/logout", a.Logout)
	auth.PUT("/auth/password", a.ChangePassword)
}

// RegisterPublic registers the unauthenticated class catalogue. The
// cache middleware (a no-op when Redis is absent) covers the static
// catalogue only. Seat counts must always reflect the store, so the
// seats route is registered without it.
func RegisterPublic(e *echo.Echo, h *handler.ClassHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1", cache)
	g.GET("/classes", h.List)
	g.GET("/classes/:id", h.Get)

	e.GET("/v1/classes/:id/seats", h.Seats)
}

// RegisterBooking registers member booking endpoints under /v1.
// Both roles may book; admins additionally cancel on behalf of
// members, which the service layer authorizes per booking.
func RegisterBooking(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMember, model.RoleAdmin),
	)
	g.POST("/bookings", h.Create)
	g.DELETE("/bookings/:id", h.Cancel)
	g.GET("/bookings", h.ListMine)
}

// RegisterPayments registers the payment endpoints. The webhook is
// deliberately outside the JWT group: the gateway has no session and
// identifies the user through charge metadata instead.
func RegisterPayments(e *echo.Echo, h *handler.PaymentHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleMember, model.RoleAdmin),
	)
	g.POST("/payments", h.Charge)
	g.GET("/payments", h.ListMine)

	e.POST("/v1/payments/webhook", h.Webhook)
}
