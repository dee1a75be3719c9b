package handler

import (
	"database/sql"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/getapp/slot-reservation/internal/repository"
)

// UserHandler serves the public trainer directory and profile
// read/update endpoints.
type UserHandler struct {
	Users *repository.UserRepo
}

func NewUserHandler(u *repository.UserRepo) *UserHandler {
	return &UserHandler{Users: u}
}

type updateProfileReq struct {
	Name        string  `json:"name"`
	Bio         *string `json:"bio,omitempty"`
	Specialties *string `json:"specialties,omitempty"`
}

// ListTrainers returns every trainer profile. The route is public so
// prospective clients can browse trainers before registering.
func (h *UserHandler) ListTrainers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	trainers, err := h.Users.ListByRole(ctx, repository.RoleTrainer)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]profileResp, 0, len(trainers))
	for _, u := range trainers {
		out = append(out, toProfileResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// GetProfile returns a single user's public profile by login.
func (h *UserHandler) GetProfile(c echo.Context) error {
	login := strings.ToLower(strings.TrimSpace(c.Param("login")))
	if login == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByLogin(ctx, login)
	if err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}

// UpdateProfile changes a user's display name, bio and (for trainers)
// specialties. Users may only edit their own profile; admins may edit
// anyone's.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	login := strings.ToLower(strings.TrimSpace(c.Param("login")))
	if login == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login required"})
	}
	if currentLogin(c) != login && currentRole(c) != repository.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}

	var req updateProfileReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Users.UpdateProfile(ctx, login, req.Name, req.Bio, req.Specialties); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}

	u, err := h.Users.GetByLogin(ctx, login)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toProfileResp(u))
}
