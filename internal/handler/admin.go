package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/getapp/slot-reservation/internal/allocator"
	"github.com/getapp/slot-reservation/internal/notify"
	"github.com/getapp/slot-reservation/internal/repository"
)

// AdminHandler exposes listings over the whole dataset plus booking
// overrides on behalf of clients. Routes using it must sit behind
// RequireRole(ADMIN).
type AdminHandler struct {
	Users         *repository.UserRepo
	Slots         *repository.SlotRepo
	Bookings      *repository.BookingRepo
	Notifications *repository.NotificationRepo
	Alloc         *allocator.Allocator
	FanOut        *notify.FanOut
}

func NewAdminHandler(u *repository.UserRepo, s *repository.SlotRepo, b *repository.BookingRepo, n *repository.NotificationRepo, a *allocator.Allocator, f *notify.FanOut) *AdminHandler {
	return &AdminHandler{Users: u, Slots: s, Bookings: b, Notifications: n, Alloc: a, FanOut: f}
}

type adminBookingResp struct {
	SlotID      uint64 `json:"slot_id"`
	ClientLogin string `json:"client_login"`
	CreatedAt   string `json:"created_at"` // RFC 3339, UTC
}

type adminNotificationResp struct {
	notificationResp
	UserLogin string `json:"user_login"`
}

type adminSlotResp struct {
	repository.SlotDetail
	Booked int `json:"booked"`
}

type adminBookingReq struct {
	SlotID      uint64 `json:"slot_id"`
	ClientLogin string `json:"client_login"`
}

// ListUsers returns every account with its role, trainers and clients
// alike.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	users, err := h.Users.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]profileResp, 0, len(users))
	for _, u := range users {
		out = append(out, toProfileResp(u))
	}
	return c.JSON(http.StatusOK, out)
}

// ListSlots returns every slot in the system with trainer names and the
// number of active bookings against each one.
func (h *AdminHandler) ListSlots(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	slots, err := h.Slots.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminSlotResp, 0, len(slots))
	for _, s := range slots {
		booked, err := h.Bookings.CountBySlot(ctx, s.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
		}
		out = append(out, adminSlotResp{SlotDetail: s, Booked: booked})
	}
	return c.JSON(http.StatusOK, out)
}

// ListBookings returns every active booking.
func (h *AdminHandler) ListBookings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	bookings, err := h.Bookings.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminBookingResp, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, adminBookingResp{
			SlotID:      b.SlotID,
			ClientLogin: b.ClientLogin,
			CreatedAt:   b.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, out)
}

// ListNotifications returns every notification with its recipient.
func (h *AdminHandler) ListNotifications(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ns, err := h.Notifications.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]adminNotificationResp, 0, len(ns))
	for _, n := range ns {
		out = append(out, adminNotificationResp{
			notificationResp: toNotificationResp(n),
			UserLogin:        n.UserLogin,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// CreateBooking books a slot on behalf of a client. It runs through the
// same reservation sequence as the client's own booking, so capacity
// and duplicate rules hold no matter who initiates.
func (h *AdminHandler) CreateBooking(c echo.Context) error {
	var req adminBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.SlotID == 0 || req.ClientLogin == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "slot_id and client_login are required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	conf, err := h.Alloc.Reserve(ctx, req.SlotID, req.ClientLogin)
	switch {
	case err == nil:
	case errors.Is(err, allocator.ErrNotClient):
		// Bad input rather than a permission problem: the admin may call
		// this, the named login just cannot hold a booking.
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSlotNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrSlotFull), errors.Is(err, repository.ErrAlreadyBooked):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "booking failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"slot_id":      conf.SlotID,
		"client_login": conf.ClientLogin,
	})
}

// DeleteBooking cancels a client's booking on behalf of the client. The
// trainer is notified the same way as for a client-initiated
// cancellation, since from their side the seat is back either way.
func (h *AdminHandler) DeleteBooking(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	login := c.Param("login")
	if login == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "client login is required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Alloc.Release(ctx, id, login)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrBookingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "cancel failed"})
	}

	clientName := login
	if u, err := h.Users.GetByLogin(ctx, login); err == nil {
		clientName = u.Name
	}
	h.FanOut.BookingCancelled(ctx, res, clientName)

	return c.NoContent(http.StatusNoContent)
}
