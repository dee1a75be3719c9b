// Package notify translates capacity-changing events into notification
// rows, one per affected counterpart. Fan-out runs after the allocator's
// transaction has committed and is strictly best-effort: a failed insert
// or publish is logged, never propagated back to the already-successful
// operation.
package notify

import (
	"context"
	"log"
	"time"

	"github.com/getapp/slot-reservation/internal/allocator"
	"github.com/getapp/slot-reservation/internal/model"
	"github.com/getapp/slot-reservation/internal/queue"
	"github.com/getapp/slot-reservation/internal/repository"
	queue_publisher "github.com/getapp/slot-reservation/internal/service"
)

// FanOut writes notification rows and mirrors each event onto the
// message broker for downstream consumers.
type FanOut struct {
	Notifications *repository.NotificationRepo
	AMQPURL       string
}

// NewFanOut constructs a FanOut publishing to the broker at amqpURL.
// The repository must be non-nil.
func NewFanOut(n *repository.NotificationRepo, amqpURL string) *FanOut {
	if n == nil {
		panic("nil repository passed to notify.NewFanOut")
	}
	return &FanOut{Notifications: n, AMQPURL: amqpURL}
}

// startHHMM trims a "15:04:05" time string down to "15:04" for display.
func startHHMM(t string) string {
	if len(t) >= 5 {
		return t[:5]
	}
	return t
}

// DeletedSlotMessage composes the client-facing text for a slot the
// trainer removed.
func DeletedSlotMessage(trainerName string, slot allocator.SlotContext) string {
	return "Trainer " + trainerName + " cancelled the training \"" + slot.Description + "\" (" + slot.SlotDate + " at " + startHHMM(slot.StartTime) + ")."
}

// CancelledBookingMessage composes the trainer-facing text for a client
// who gave their seat back.
func CancelledBookingMessage(clientName string, slot allocator.SlotContext) string {
	return "Client " + clientName + " cancelled their booking for your training \"" + slot.Description + "\" (" + slot.SlotDate + " at " + startHHMM(slot.StartTime) + ")."
}

// SlotDeleted emits one notification per client who held a booking on
// the deleted slot. The slot row is already gone by the time these rows
// are written; related_slot_id is a weak reference (no FK), so the
// deleted id is recorded as-is for the reader to resolve or ignore.
// The returned count is how many rows were written.
func (f *FanOut) SlotDeleted(ctx context.Context, res allocator.DeleteResult, trainerName string) int {
	if len(res.ClientLogins) == 0 {
		return 0
	}
	slotID := res.Slot.SlotID
	msg := DeletedSlotMessage(trainerName, res.Slot)
	ns := make([]model.Notification, 0, len(res.ClientLogins))
	for _, login := range res.ClientLogins {
		ns = append(ns, model.Notification{UserLogin: login, Message: msg, RelatedSlotID: &slotID})
	}
	if err := f.Notifications.CreateBulk(ctx, ns); err != nil {
		log.Printf("notify: slot %d deletion fan-out failed: %v", res.Slot.SlotID, err)
		return 0
	}
	log.Printf("notify: created %d notifications for deleted slot %d", len(ns), res.Slot.SlotID)
	f.publish(ctx, queue.KindSlotDeleted, res.Slot, res.ClientLogins)
	return len(ns)
}

// BookingCancelled emits exactly one notification to the slot's owning
// trainer after a client released their seat.
func (f *FanOut) BookingCancelled(ctx context.Context, res allocator.ReleaseResult, clientName string) {
	slotID := res.Slot.SlotID
	n := model.Notification{
		UserLogin:     res.Slot.TrainerLogin,
		Message:       CancelledBookingMessage(clientName, res.Slot),
		RelatedSlotID: &slotID,
	}
	if err := f.Notifications.Create(ctx, &n); err != nil {
		log.Printf("notify: cancellation fan-out for slot %d failed: %v", slotID, err)
		return
	}
	log.Printf("notify: created notification for trainer %s about cancellation by %s", res.Slot.TrainerLogin, res.ClientLogin)
	f.publish(ctx, queue.KindBookingCancelled, res.Slot, []string{res.Slot.TrainerLogin})
}

func (f *FanOut) publish(ctx context.Context, kind string, slot allocator.SlotContext, recipients []string) {
	ev := queue.CapacityReleasedEvent{
		Kind:         kind,
		SlotID:       slot.SlotID,
		TrainerLogin: slot.TrainerLogin,
		Description:  slot.Description,
		SlotDate:     slot.SlotDate,
		StartTime:    slot.StartTime,
		Recipients:   recipients,
		OccurredAt:   time.Now().UTC().Format(time.RFC3339),
	}
	// Broker failures are already logged by the publisher.
	_ = queue_publisher.PublishCapacityReleased(ctx, f.AMQPURL, ev)
}
