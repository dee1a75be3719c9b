package router

import (
	"github.com/labstack/echo/v4"

	"github.com/getapp/slot-reservation/internal/handler"
	"github.com/getapp/slot-reservation/internal/middleware"
	"github.com/getapp/slot-reservation/internal/repository"
)

// RegisterAdmin registers oversight endpoints under /v1/admin: listings
// over the whole dataset plus booking overrides on behalf of clients.
// Every route requires a valid JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleAdmin),
	)
	g.GET("/users", h.ListUsers)
	g.GET("/slots", h.ListSlots)
	g.GET("/bookings", h.ListBookings)
	g.GET("/notifications", h.ListNotifications)
	g.POST("/bookings", h.CreateBooking)
	g.DELETE("/slots/:id/bookings/:login", h.DeleteBooking)
}
