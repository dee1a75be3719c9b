// Package allocator implements the transactional protocol that keeps a
// slot's remaining capacity consistent with the set of active bookings.
// Every capacity mutation in the system goes through Reserve, Release or
// DeleteSlot; each runs as a single database transaction and takes a
// row-level lock on the slot before reading the quantity column, so two
// concurrent reservations against the last seat cannot both pass the
// capacity check.
package allocator

import (
	"context"
	"database/sql"
	"errors"

	"github.com/getapp/slot-reservation/internal/repository"
)

// ErrNotClient is returned by Reserve when the login does not resolve
// to a user with the CLIENT role. Handlers translate this into an
// authorization failure rather than a slot-level conflict.
var ErrNotClient = errors.New("client not found or is not a client")

// SlotContext carries the descriptive fields of the slot involved in a
// capacity-changing event. DeleteSlot captures them before the row is
// gone so the fan-out can still compose messages about it.
type SlotContext struct {
	SlotID       uint64
	TrainerLogin string
	Description  string
	SlotDate     string
	StartTime    string
}

// Confirmation is the success result of Reserve.
type Confirmation struct {
	SlotID      uint64
	ClientLogin string
}

// ReleaseResult is the success result of Release: the cancelled pair
// plus the slot/trainer context the caller needs to notify the trainer.
type ReleaseResult struct {
	Confirmation
	Slot SlotContext
}

// DeleteResult is the success result of DeleteSlot: the slot context
// and the logins of every client who held an active booking at the
// moment of deletion.
type DeleteResult struct {
	Slot         SlotContext
	ClientLogins []string
}

// Allocator serializes capacity mutations per slot. It owns no state of
// its own; all coordination happens through the storage layer's
// transaction discipline, so multiple server instances sharing one
// database stay consistent.
type Allocator struct {
	db       *sql.DB
	users    *repository.UserRepo
	slots    *repository.SlotRepo
	bookings *repository.BookingRepo
}

// New constructs an Allocator. All dependencies must be non-nil.
func New(users *repository.UserRepo, slots *repository.SlotRepo, bookings *repository.BookingRepo) *Allocator {
	if users == nil || slots == nil || bookings == nil {
		panic("nil repository passed to allocator.New")
	}
	return &Allocator{db: slots.DB(), users: users, slots: slots, bookings: bookings}
}

func slotContext(id uint64, trainerLogin, description, date, start string) SlotContext {
	return SlotContext{SlotID: id, TrainerLogin: trainerLogin, Description: description, SlotDate: date, StartTime: start}
}

// Reserve books one seat in the slot for the client. Preconditions are
// checked in order, each with a distinct failure: the login must
// resolve to a client (ErrNotClient), the slot must exist
// (repository.ErrSlotNotFound), capacity must be positive
// (repository.ErrSlotFull) and the pair must not already be booked
// (repository.ErrAlreadyBooked). The booking insert and the capacity
// decrement commit together or not at all.
func (a *Allocator) Reserve(ctx context.Context, slotID uint64, clientLogin string) (Confirmation, error) {
	role, err := a.users.ResolveRole(ctx, clientLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Confirmation{}, ErrNotClient
		}
		return Confirmation{}, err
	}
	if role != repository.RoleClient {
		return Confirmation{}, ErrNotClient
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return Confirmation{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slot, err := a.slots.GetForUpdateTx(ctx, tx, slotID)
	if err != nil {
		return Confirmation{}, err
	}
	if slot.Quantity <= 0 {
		return Confirmation{}, repository.ErrSlotFull
	}
	booked, err := a.bookings.ExistsTx(ctx, tx, slotID, clientLogin)
	if err != nil {
		return Confirmation{}, err
	}
	if booked {
		return Confirmation{}, repository.ErrAlreadyBooked
	}
	if err := a.bookings.CreateTx(ctx, tx, slotID, clientLogin); err != nil {
		return Confirmation{}, err
	}
	if err := a.slots.AdjustQuantityTx(ctx, tx, slotID, -1); err != nil {
		return Confirmation{}, err
	}
	if err := tx.Commit(); err != nil {
		return Confirmation{}, err
	}
	committed = true
	return Confirmation{SlotID: slotID, ClientLogin: clientLogin}, nil
}

// Release cancels the client's booking and credits the seat back.
// Because bookings cascade away with their slot, a missing slot means
// the pair cannot exist either, so both cases report
// repository.ErrBookingNotFound. On success the returned context
// carries the trainer login and slot fields for notification fan-out.
func (a *Allocator) Release(ctx context.Context, slotID uint64, clientLogin string) (ReleaseResult, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return ReleaseResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slot, err := a.slots.GetForUpdateTx(ctx, tx, slotID)
	if err != nil {
		if errors.Is(err, repository.ErrSlotNotFound) {
			return ReleaseResult{}, repository.ErrBookingNotFound
		}
		return ReleaseResult{}, err
	}
	if err := a.bookings.DeleteTx(ctx, tx, slotID, clientLogin); err != nil {
		return ReleaseResult{}, err
	}
	if err := a.slots.AdjustQuantityTx(ctx, tx, slotID, 1); err != nil {
		return ReleaseResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return ReleaseResult{}, err
	}
	committed = true
	return ReleaseResult{
		Confirmation: Confirmation{SlotID: slotID, ClientLogin: clientLogin},
		Slot:         slotContext(slotID, slot.TrainerLogin, slot.Description, slot.SlotDate, slot.StartTime),
	}, nil
}

// DeleteSlot removes the slot and, through the ledger's FK cascade,
// every booking referencing it. The affected client logins and the
// slot's descriptive fields are captured inside the transaction, before
// the rows disappear, and returned for fan-out. A repeated delete of an
// already-gone slot reports repository.ErrSlotNotFound; soft-success
// presentation is left to the caller.
func (a *Allocator) DeleteSlot(ctx context.Context, slotID uint64) (DeleteResult, error) {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return DeleteResult{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	slot, err := a.slots.GetForUpdateTx(ctx, tx, slotID)
	if err != nil {
		return DeleteResult{}, err
	}
	clients, err := a.bookings.ClientsBySlotTx(ctx, tx, slotID)
	if err != nil {
		return DeleteResult{}, err
	}
	if err := a.slots.DeleteTx(ctx, tx, slotID); err != nil {
		return DeleteResult{}, err
	}
	if err := tx.Commit(); err != nil {
		return DeleteResult{}, err
	}
	committed = true
	return DeleteResult{
		Slot:         slotContext(slotID, slot.TrainerLogin, slot.Description, slot.SlotDate, slot.StartTime),
		ClientLogins: clients,
	}, nil
}
