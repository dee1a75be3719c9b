// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. Expected
// business outcomes (a full slot, a duplicate booking) are modelled as
// sentinels rather than raw SQL errors so that handlers can map them to
// 404 or 409 responses without string matching.
package repository

import "errors"

// ErrSlotNotFound indicates that a slot was not located in the DB.
var ErrSlotNotFound = errors.New("slot not found")

// ErrSlotFull is returned when a reservation is attempted against a
// slot whose remaining capacity is zero. Handlers should translate
// this into an HTTP 409 response.
var ErrSlotFull = errors.New("no places available in slot")

// ErrAlreadyBooked is returned when a client attempts a second
// reservation for the same slot. Handlers should translate this
// into an HTTP 409 response.
var ErrAlreadyBooked = errors.New("client already booked for this slot")

// ErrBookingNotFound indicates that no (slot, client) reservation
// pair exists for a cancellation request.
var ErrBookingNotFound = errors.New("booking not found for this client and slot")

// ErrNotificationNotFound indicates that a notification id did not
// match any row.
var ErrNotificationNotFound = errors.New("notification not found")

// ErrNoChange indicates the UPDATE attempted to set fields equal to current values.
var ErrNoChange = errors.New("no change")
