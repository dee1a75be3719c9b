package middleware

// identity.go defines helper functions shared across middleware files.
// Currently it provides a userLogin extraction function that pulls the
// login stored in the Echo context by JWTAuth. When no token is present,
// "guest" is returned so cache and rate-limit keys stay well formed.

import (
	"github.com/labstack/echo/v4"
)

// userLogin extracts the authenticated login from context. It returns
// "guest" when no user is authenticated or the value has the wrong type.
func userLogin(c echo.Context) string {
	if v, ok := c.Get("login").(string); ok && v != "" {
		return v
	}
	return "guest"
}
