package router

import (
	"github.com/labstack/echo/v4"

	"github.com/getapp/slot-reservation/internal/handler"
	"github.com/getapp/slot-reservation/internal/middleware"
	"github.com/getapp/slot-reservation/internal/repository"
)

// RegisterClient registers client-scoped endpoints under /v1.  All routes
// require a valid JWT and the CLIENT role.  Clients can browse bookable
// slots, reserve a seat, cancel their booking and view their own
// bookings.  The notification inbox is registered here too but is open
// to every role, since trainers receive cancellation notifications.
func RegisterClient(e *echo.Echo, h *handler.BookingHandler, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleClient),
	)
	g.GET("/slots/available", h.Available)
	g.POST("/slots/:id/book", h.Book)
	g.DELETE("/slots/:id/book", h.Cancel)
	g.GET("/my-bookings", h.MyBookings)

	inbox := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleTrainer, repository.RoleClient, repository.RoleAdmin),
	)
	inbox.GET("/notifications/unread", n.Unread)
	inbox.POST("/notifications/:id/read", n.MarkRead)
}
