package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/getapp/slot-reservation/internal/allocator"
	"github.com/getapp/slot-reservation/internal/model"
	"github.com/getapp/slot-reservation/internal/notify"
	"github.com/getapp/slot-reservation/internal/repository"
)

// SlotHandler serves trainer-side slot management: publishing new
// slots, editing them and deleting them. Deletion goes through the
// allocator so booked clients get notified.
type SlotHandler struct {
	Users  *repository.UserRepo
	Slots  *repository.SlotRepo
	Alloc  *allocator.Allocator
	FanOut *notify.FanOut
}

func NewSlotHandler(u *repository.UserRepo, s *repository.SlotRepo, a *allocator.Allocator, f *notify.FanOut) *SlotHandler {
	return &SlotHandler{Users: u, Slots: s, Alloc: a, FanOut: f}
}

type slotReq struct {
	Description string `json:"description"`
	SlotDate    string `json:"slot_date"`  // "2006-01-02"
	StartTime   string `json:"start_time"` // "15:04" or "15:04:05"
	EndTime     string `json:"end_time"`
	Quantity    int    `json:"quantity"`
}

type slotResp struct {
	ID           uint64 `json:"id"`
	TrainerLogin string `json:"trainer_login"`
	Description  string `json:"description"`
	SlotDate     string `json:"slot_date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Quantity     int    `json:"quantity"`
}

func toSlotResp(s *model.Slot) slotResp {
	return slotResp{
		ID:           s.ID,
		TrainerLogin: s.TrainerLogin,
		Description:  s.Description,
		SlotDate:     s.SlotDate,
		StartTime:    s.StartTime,
		EndTime:      s.EndTime,
		Quantity:     s.Quantity,
	}
}

// normalizeTime accepts "15:04" or "15:04:05" and returns the DB form
// "15:04:05", or ok=false for anything unparsable.
func normalizeTime(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse("15:04:05", v); err == nil {
		return t.Format("15:04:05"), true
	}
	if t, err := time.Parse("15:04", v); err == nil {
		return t.Format("15:04:05"), true
	}
	return "", false
}

// validateSlotReq checks a slot payload and returns it in DB form.
func validateSlotReq(req *slotReq) (string, bool) {
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return "description required", false
	}
	if _, err := time.Parse("2006-01-02", strings.TrimSpace(req.SlotDate)); err != nil {
		return "slot_date must be YYYY-MM-DD", false
	}
	req.SlotDate = strings.TrimSpace(req.SlotDate)
	start, ok := normalizeTime(req.StartTime)
	if !ok {
		return "start_time must be HH:MM or HH:MM:SS", false
	}
	end, ok := normalizeTime(req.EndTime)
	if !ok {
		return "end_time must be HH:MM or HH:MM:SS", false
	}
	if start >= end {
		return "start_time must be before end_time", false
	}
	req.StartTime, req.EndTime = start, end
	if req.Quantity < 1 {
		return "quantity must be positive", false
	}
	return "", true
}

// Create publishes a new slot owned by the authenticated trainer.
func (h *SlotHandler) Create(c echo.Context) error {
	var req slotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := validateSlotReq(&req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s := &model.Slot{
		TrainerLogin: currentLogin(c),
		Description:  req.Description,
		SlotDate:     req.SlotDate,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Quantity:     req.Quantity,
	}
	if err := h.Slots.Create(ctx, s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create slot failed"})
	}
	return c.JSON(http.StatusCreated, toSlotResp(s))
}

// Update edits a slot's schedule fields. Only the owning trainer may
// update a slot; a matching slot owned by someone else yields 403.
func (h *SlotHandler) Update(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}
	var req slotReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if msg, ok := validateSlotReq(&req); !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s := &model.Slot{
		ID:          id,
		Description: req.Description,
		SlotDate:    req.SlotDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Quantity:    req.Quantity,
	}
	err := h.Slots.UpdateByIDAndOwner(ctx, s, currentLogin(c))
	switch {
	case err == nil, errors.Is(err, repository.ErrNoChange):
		// fallthrough to re-read below
	case errors.Is(err, sql.ErrNoRows):
		// Distinguish "someone else's slot" from "no such slot".
		if _, gerr := h.Slots.GetByID(ctx, id); gerr == nil {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "not your slot"})
		}
		return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update slot failed"})
	}

	out, err := h.Slots.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, toSlotResp(out))
}

// Delete removes a slot, cancelling every booking it holds. The owning
// trainer or an admin may delete; every booked client is notified after
// the transaction commits.
func (h *SlotHandler) Delete(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid slot id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	s, err := h.Slots.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if s.TrainerLogin != currentLogin(c) && currentRole(c) != repository.RoleAdmin {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your slot"})
	}

	res, err := h.Alloc.DeleteSlot(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "slot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete slot failed"})
	}

	// Notify with the owner's display name, not the caller's: an admin
	// deleting a slot still produces a trainer-authored message.
	trainerName := s.TrainerLogin
	if owner, err := h.Users.GetByLogin(ctx, s.TrainerLogin); err == nil {
		trainerName = owner.Name
	}
	notified := h.FanOut.SlotDeleted(ctx, res, trainerName)

	return c.JSON(http.StatusOK, echo.Map{
		"deleted":          id,
		"notified_clients": notified,
	})
}

// ListByTrainer returns all slots published by the given trainer.
func (h *SlotHandler) ListByTrainer(c echo.Context) error {
	login := strings.ToLower(strings.TrimSpace(c.Param("login")))
	if login == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "login required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	slots, err := h.Slots.ListByTrainer(ctx, login)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, slots)
}
