package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/getapp/slot-reservation/internal/utils"
)

func echoWith(mw echo.MiddlewareFunc, handler echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.GET("/protected", handler, mw)
	return e
}

func TestJWTAuthInjectsClaims(t *testing.T) {
	at, err := utils.NewAccessToken("secret", "alice", "CLIENT", 15)
	require.NoError(t, err)

	e := echoWith(JWTAuth("secret"), func(c echo.Context) error {
		require.Equal(t, "alice", c.Get("login"))
		require.Equal(t, "CLIENT", c.Get("role"))
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestJWTAuthMissingHeader(t *testing.T) {
	e := echoWith(JWTAuth("secret"), func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAuthWrongSecret(t *testing.T) {
	at, err := utils.NewAccessToken("other-secret", "alice", "CLIENT", 15)
	require.NoError(t, err)

	e := echoWith(JWTAuth("secret"), func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+at.Token)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	e := echo.New()
	handler := func(c echo.Context) error { return c.NoContent(http.StatusOK) }
	inject := func(role string) echo.MiddlewareFunc {
		return func(next echo.HandlerFunc) echo.HandlerFunc {
			return func(c echo.Context) error {
				c.Set("role", role)
				return next(c)
			}
		}
	}
	e.GET("/trainer", handler, inject("TRAINER"), RequireRole("TRAINER"))
	e.GET("/client", handler, inject("CLIENT"), RequireRole("TRAINER"))
	e.GET("/none", handler, RequireRole("TRAINER"))

	for path, want := range map[string]int{
		"/trainer": http.StatusOK,
		"/client":  http.StatusForbidden,
		"/none":    http.StatusForbidden,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		require.Equal(t, want, rec.Code, path)
	}
}

func TestUserLoginFallsBackToGuest(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	require.Equal(t, "guest", userLogin(c))

	c.Set("login", "alice")
	require.Equal(t, "alice", userLogin(c))
}
