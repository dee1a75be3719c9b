package model

import "time"

// Slot represents a trainer-published time block with a seat
// capacity.  The remaining capacity counter is owned by the
// allocator: it is decremented by exactly one for every booking
// and incremented back by exactly one for every cancellation, so
// remaining capacity plus active bookings stays constant for the
// lifetime of the slot.
//
// Fields:
//  ID           – primary key identifier, assigned on creation.
//  TrainerLogin – login of the owning trainer.
//  Description  – free text shown to clients and in notifications.
//  SlotDate     – calendar date of the slot ("2006-01-02").
//  StartTime    – start of the block ("15:04:05"), strictly before EndTime.
//  EndTime      – end of the block ("15:04:05").
//  Quantity     – remaining capacity, never negative.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Slot struct {
	ID           uint64    // slots.id
	TrainerLogin string    // slots.trainer_login
	Description  string    // slots.description
	SlotDate     string    // slots.slot_date
	StartTime    string    // slots.start_time
	EndTime      string    // slots.end_time
	Quantity     int       // slots.quantity
	CreatedAt    time.Time // slots.created_at
	UpdatedAt    time.Time // slots.updated_at
}

// Booking records a client's reservation of one seat in a slot.
// The (slot, client) pair is the composite primary key; a client
// can hold at most one booking per slot and a booking is physically
// deleted on cancellation or when the slot is removed.
//
// Fields:
//  SlotID      – slot being reserved.
//  ClientLogin – client holding the seat.
//  CreatedAt   – when the reservation was made.
type Booking struct {
	SlotID      uint64    // slots_clients.slot_id
	ClientLogin string    // slots_clients.client_login
	CreatedAt   time.Time // slots_clients.created_at
}
