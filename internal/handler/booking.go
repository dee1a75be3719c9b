package handler

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/getapp/slot-reservation/internal/allocator"
	"github.com/getapp/slot-reservation/internal/notify"
	"github.com/getapp/slot-reservation/internal/repository"
)

// BookingHandler serves client-side booking endpoints. Book and Cancel
// delegate to the allocator, which owns the transactional capacity
// protocol; this handler only maps its errors to HTTP responses and
// triggers notification fan-out after a cancellation.
type BookingHandler struct {
	Users    *repository.UserRepo
	Slots    *repository.SlotRepo
	Bookings *repository.BookingRepo
	Alloc    *allocator.Allocator
	FanOut   *notify.FanOut
}

func NewBookingHandler(u *repository.UserRepo, s *repository.SlotRepo, b *repository.BookingRepo, a *allocator.Allocator, f *notify.FanOut) *BookingHandler {
	return &BookingHandler{Users: u, Slots: s, Bookings: b, Alloc: a, FanOut: f}
}

// Book reserves one seat in the slot for the authenticated client.
func (h *BookingHandler) Book(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	conf, err := h.Alloc.Reserve(ctx, id, currentLogin(c))
	switch {
	case err == nil:
	case errors.Is(err, allocator.ErrNotClient):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
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

// Cancel releases the authenticated client's booking on the slot and
// notifies the trainer once the seat is back in the pool.
func (h *BookingHandler) Cancel(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	login := currentLogin(c)
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

// MyBookings lists the slots the authenticated client currently holds
// a seat in.
func (h *BookingHandler) MyBookings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	slots, err := h.Bookings.ListByClient(ctx, currentLogin(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, slots)
}

// Available lists slots the authenticated client can still book:
// remaining capacity and no existing booking of their own.
func (h *BookingHandler) Available(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	login := currentLogin(c)
	// Unknown logins fall out naturally with an empty list, but a stale
	// token for a deleted account should read as unauthorized.
	if _, err := h.Users.ResolveRole(ctx, login); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unknown user"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	slots, err := h.Slots.ListAvailableForClient(ctx, login)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, slots)
}
