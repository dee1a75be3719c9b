package router

import (
	"github.com/labstack/echo/v4"

	"github.com/getapp/slot-reservation/internal/handler"
	"github.com/getapp/slot-reservation/internal/middleware"
	"github.com/getapp/slot-reservation/internal/repository"
)

// RegisterTrainer registers slot management endpoints under /v1.  Creating
// and editing slots requires the TRAINER role; deleting additionally
// allows ADMIN since moderators may remove slots on a trainer's behalf.
// Browsing a trainer's schedule is open to any authenticated role.
func RegisterTrainer(e *echo.Echo, h *handler.SlotHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleTrainer),
	)
	g.POST("/slots", h.Create)
	g.PUT("/slots/:id", h.Update)

	// Deletion fans out notifications to every booked client, so the route
	// exists once and the handler checks ownership for non-admins.
	del := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleTrainer, repository.RoleAdmin),
	)
	del.DELETE("/slots/:id", h.Delete)

	// Any authenticated user can look at a trainer's published slots.
	browse := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(repository.RoleTrainer, repository.RoleClient, repository.RoleAdmin),
	)
	browse.GET("/slots/trainer/:login", h.ListByTrainer)
}
