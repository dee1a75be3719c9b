// Package repository contains the booking ledger: the set of
// (slot, client) reservation pairs. The composite primary key on
// slots_clients enforces at most one reservation per pair; the
// repository surfaces a duplicate-key insert as ErrAlreadyBooked so the
// allocator can report a conflict instead of a storage failure.
package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/getapp/slot-reservation/internal/model"
)

// BookingRepo provides data access to the slots_clients table.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// ExistsTx reports whether the (slot, client) pair is present, within
// the caller's transaction so the answer stays valid until commit.
func (r *BookingRepo) ExistsTx(ctx context.Context, tx *sql.Tx, slotID uint64, clientLogin string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx,
		`SELECT 1 FROM slots_clients WHERE slot_id = ? AND client_login = ? LIMIT 1`,
		slotID, clientLogin).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// CreateTx inserts the reservation pair within the caller's
// transaction. A duplicate-key error maps to ErrAlreadyBooked.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, slotID uint64, clientLogin string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO slots_clients (slot_id, client_login) VALUES (?, ?)`,
		slotID, clientLogin)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrAlreadyBooked
		}
		return err
	}
	return nil
}

// DeleteTx removes the reservation pair within the caller's
// transaction. It returns ErrBookingNotFound when no row matched.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, slotID uint64, clientLogin string) error {
	res, err := tx.ExecContext(ctx,
		`DELETE FROM slots_clients WHERE slot_id = ? AND client_login = ?`,
		slotID, clientLogin)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ClientsBySlotTx returns the logins of every client holding an active
// booking for the slot. The allocator calls this inside the DeleteSlot
// transaction, before the cascade wipes the rows, to know who to notify.
func (r *BookingRepo) ClientsBySlotTx(ctx context.Context, tx *sql.Tx, slotID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		`SELECT client_login FROM slots_clients WHERE slot_id = ? ORDER BY client_login ASC`, slotID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	logins := make([]string, 0)
	for rows.Next() {
		var l string
		if err := rows.Scan(&l); err != nil {
			return nil, err
		}
		logins = append(logins, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logins, nil
}

// ListByClient returns the slots a client has booked, joined with
// trainer names, soonest first.
func (r *BookingRepo) ListByClient(ctx context.Context, clientLogin string) ([]SlotDetail, error) {
	const q = `SELECT ` + slotDetailColumns + `
               FROM slots_clients sc
               JOIN slots s ON s.id = sc.slot_id
               JOIN users u ON u.login = s.trainer_login
               WHERE sc.client_login = ?
               ORDER BY s.slot_date ASC, s.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, clientLogin)
	if err != nil {
		return nil, err
	}
	return collectSlotDetails(rows)
}

// ListAll returns every reservation pair ordered by slot id. Admin use only.
func (r *BookingRepo) ListAll(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT slot_id, client_login, created_at FROM slots_clients ORDER BY slot_id ASC, client_login ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.SlotID, &b.ClientLogin, &b.CreatedAt); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}

// CountBySlot returns the number of active bookings for a slot.
func (r *BookingRepo) CountBySlot(ctx context.Context, slotID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM slots_clients WHERE slot_id = ?`, slotID).Scan(&n)
	return n, err
}
