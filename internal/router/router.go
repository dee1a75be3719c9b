package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/getapp/slot-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/getapp/slot-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/getapp/slot-reservation/internal/repository" // role constants
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterPublic registers unauthenticated browse endpoints.  Guests can
// inspect the trainer directory and individual profiles before deciding
// to register.  The response cache is applied here and only here: its
// key carries no caller identity, so it must never sit in front of a
// route whose body depends on who is asking.
func RegisterPublic(e *echo.Echo, u *handler.UserHandler, cache echo.MiddlewareFunc) {
	// Expose the list of all trainers with their specialties.
	e.GET("/v1/trainers", u.ListTrainers, cache)
	// Public profile of any user by login.
	e.GET("/v1/users/:login", u.GetProfile, cache)
}

// RegisterAuth registers all authentication‑related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler, jwtSecret string) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth")
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Log out using a refresh token.  Logout does not require JWT
	// authentication: the handler accepts a JSON body containing a
	// `refresh_token` and will invalidate that token, or a bearer token to
	// revoke every session of the user.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.  Protected endpoints live under /v1.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Any known role may call the generic account endpoints; the middleware
	// rejects requests with missing or unknown roles.
	auth.Use(middleware.RequireRole(repository.RoleTrainer, repository.RoleClient, repository.RoleAdmin))
	// The authenticated user's own profile.
	auth.GET("/me", a.Me)
	// Profile edits: the handler enforces that users may only edit their own
	// profile unless they are an admin.
	auth.PUT("/users/:login", u.UpdateProfile)

	// Additionally map POST /v1/logout to the same handler.  This route lives
	// at the top level (outside of the protected group) so it does not
	// require a JWT.  Clients can therefore call either /v1/auth/logout or
	// /v1/logout with a valid refresh token in the body to terminate a
	// session.
	e.POST("/v1/logout", a.Logout)
}
