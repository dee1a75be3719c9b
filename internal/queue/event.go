// Package queue defines message payloads exchanged over the message broker.
package queue

// CapacityReleasedEvent is published after a cancellation or slot
// deletion has committed. It contains enough information for downstream
// consumers to log or trigger analytics without querying the primary
// database.
type CapacityReleasedEvent struct {
	Kind         string   `json:"kind"` // "slot.deleted" or "booking.cancelled"
	SlotID       uint64   `json:"slot_id"`
	TrainerLogin string   `json:"trainer_login"`
	Description  string   `json:"description"`
	SlotDate     string   `json:"slot_date"`
	StartTime    string   `json:"start_time"`
	Recipients   []string `json:"recipients"`
	OccurredAt   string   `json:"occurred_at"`
}

// Event kinds carried in CapacityReleasedEvent.Kind.
const (
	KindSlotDeleted      = "slot.deleted"
	KindBookingCancelled = "booking.cancelled"
)
