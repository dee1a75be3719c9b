package model

import "time"

// Notification is a message created for a user after a
// capacity-changing event: a trainer deleting a slot notifies every
// booked client, a client cancelling a booking notifies the trainer.
// The slot reference is a weak one: no foreign key backs it, so a
// notification can point at a slot that no longer exists. Readers
// must treat it as a hint, not a join target.
//
// Fields:
//  ID            – auto incrementing primary key.
//  UserLogin     – recipient of the message.
//  Message       – human readable text composed by the fan-out.
//  IsRead        – read flag, false on insert.
//  CreatedAt     – server-assigned creation timestamp.
//  RelatedSlotID – slot that caused the notification (nullable).
type Notification struct {
	ID            uint64    // user_notifications.id
	UserLogin     string    // user_notifications.user_login
	Message       string    // user_notifications.message
	IsRead        bool      // user_notifications.is_read
	CreatedAt     time.Time // user_notifications.created_at
	RelatedSlotID *uint64   // user_notifications.related_slot_id (nullable)
}
