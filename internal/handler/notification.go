package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/getapp/slot-reservation/internal/model"
	"github.com/getapp/slot-reservation/internal/repository"
)

// NotificationHandler serves a user's notification inbox.
type NotificationHandler struct {
	Notifications *repository.NotificationRepo
}

func NewNotificationHandler(n *repository.NotificationRepo) *NotificationHandler {
	return &NotificationHandler{Notifications: n}
}

type notificationResp struct {
	ID            uint64  `json:"id"`
	Message       string  `json:"message"`
	IsRead        bool    `json:"is_read"`
	CreatedAt     string  `json:"created_at"` // RFC 3339, UTC
	RelatedSlotID *uint64 `json:"related_slot_id,omitempty"`
}

func toNotificationResp(n model.Notification) notificationResp {
	return notificationResp{
		ID:            n.ID,
		Message:       n.Message,
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt.UTC().Format(time.RFC3339),
		RelatedSlotID: n.RelatedSlotID,
	}
}

// Unread lists the authenticated user's unread notifications, newest
// first.
func (h *NotificationHandler) Unread(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ns, err := h.Notifications.ListUnreadByUser(ctx, currentLogin(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	out := make([]notificationResp, 0, len(ns))
	for _, n := range ns {
		out = append(out, toNotificationResp(n))
	}
	return c.JSON(http.StatusOK, out)
}

// MarkRead flips one of the caller's notifications to read. Repeats
// succeed; an id belonging to someone else reports 404.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Notifications.MarkRead(ctx, id, currentLogin(c)); err != nil {
		if errors.Is(err, repository.ErrNotificationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
