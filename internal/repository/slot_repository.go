// Package repository contains data access logic for slot persistence. This
// file defines repository methods for slots. A Slot represents a trainer's
// published time block with a remaining seat capacity. The quantity column
// is only ever written through the allocator's transactional methods; every
// other mutation path (trainer edits) leaves it alone unless the trainer
// explicitly restocks the slot.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/getapp/slot-reservation/internal/model"
)

// slotColumns is the shared select list for slot rows. Date and time
// columns are formatted in SQL so the driver hands back plain strings
// regardless of the parseTime DSN setting.
const slotColumns = `id, trainer_login, description,
       DATE_FORMAT(slot_date, '%Y-%m-%d'),
       TIME_FORMAT(start_time, '%H:%i:%s'),
       TIME_FORMAT(end_time, '%H:%i:%s'),
       quantity, created_at, updated_at`

// SlotRepo manages persistence for slots.
type SlotRepo struct {
	db *sql.DB
}

// NewSlotRepo constructs a SlotRepo with the given DB handle.
func NewSlotRepo(db *sql.DB) *SlotRepo {
	return &SlotRepo{db: db}
}

// DB exposes the underlying sql.DB.  It allows callers to begin
// transactions spanning multiple repositories.  The allocator uses this
// to run its read-check-mutate sequence in one unit of work.
func (r *SlotRepo) DB() *sql.DB {
	return r.db
}

func scanSlot(row interface {
	Scan(dest ...interface{}) error
}, s *model.Slot) error {
	return row.Scan(&s.ID, &s.TrainerLogin, &s.Description, &s.SlotDate, &s.StartTime, &s.EndTime, &s.Quantity, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a new slot and assigns the generated ID back to the
// struct. The caller must provide trainer_login, description, slot_date,
// start_time, end_time and quantity in their DB string formats.
func (r *SlotRepo) Create(ctx context.Context, s *model.Slot) error {
	const q = `INSERT INTO slots (trainer_login, description, slot_date, start_time, end_time, quantity) VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.TrainerLogin, s.Description, s.SlotDate, s.StartTime, s.EndTime, s.Quantity)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	// Query back the full row to populate timestamps and defaults.
	return scanSlot(r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, s.ID), s)
}

// GetByID retrieves a slot by its ID.  It returns ErrSlotNotFound if
// there is no matching row.
func (r *SlotRepo) GetByID(ctx context.Context, id uint64) (*model.Slot, error) {
	var s model.Slot
	err := scanSlot(r.db.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ?`, id), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// GetForUpdateTx loads a slot inside the given transaction with a
// row-level lock. Concurrent allocator operations on the same slot block
// here until the holding transaction commits, which is what serializes
// the check-then-act sequence on the quantity column.
func (r *SlotRepo) GetForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Slot, error) {
	var s model.Slot
	err := scanSlot(tx.QueryRowContext(ctx, `SELECT `+slotColumns+` FROM slots WHERE id = ? FOR UPDATE`, id), &s)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	return &s, nil
}

// AdjustQuantityTx applies a ±1 capacity change within the caller's
// transaction. The WHERE guard keeps the counter from ever dropping
// below zero even if a caller skips the locked read.
func (r *SlotRepo) AdjustQuantityTx(ctx context.Context, tx *sql.Tx, id uint64, delta int) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE slots SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND quantity + ? >= 0`,
		delta, id, delta)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotFull
	}
	return nil
}

// DeleteTx removes the slot row within the caller's transaction. The
// slots_clients rows referencing it are removed by the FK cascade.
func (r *SlotRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	res, err := tx.ExecContext(ctx, `DELETE FROM slots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// SlotDetail is a slot joined with its trainer's display name. It is
// returned by browse queries for display to clients.
type SlotDetail struct {
	ID           uint64 `json:"id"`
	TrainerLogin string `json:"trainer_login"`
	Description  string `json:"description"`
	SlotDate     string `json:"slot_date"`
	StartTime    string `json:"start_time"`
	EndTime      string `json:"end_time"`
	Quantity     int    `json:"quantity"`
	TrainerName  string `json:"trainer_name,omitempty"`
}

func collectSlotDetails(rows *sql.Rows) ([]SlotDetail, error) {
	defer rows.Close()
	details := make([]SlotDetail, 0)
	for rows.Next() {
		var d SlotDetail
		if err := rows.Scan(&d.ID, &d.TrainerLogin, &d.Description, &d.SlotDate, &d.StartTime, &d.EndTime, &d.Quantity, &d.TrainerName); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return details, nil
}

const slotDetailColumns = `s.id, s.trainer_login, s.description,
       DATE_FORMAT(s.slot_date, '%Y-%m-%d'),
       TIME_FORMAT(s.start_time, '%H:%i:%s'),
       TIME_FORMAT(s.end_time, '%H:%i:%s'),
       s.quantity, u.name`

// ListAvailableForClient returns slots a client can still book: positive
// remaining capacity and no existing booking for that client. Results
// are ordered soonest first.
func (r *SlotRepo) ListAvailableForClient(ctx context.Context, clientLogin string) ([]SlotDetail, error) {
	const q = `SELECT ` + slotDetailColumns + `
               FROM slots s
               JOIN users u ON u.login = s.trainer_login
               WHERE s.quantity > 0
                 AND NOT EXISTS (
                     SELECT 1 FROM slots_clients sc
                     WHERE sc.slot_id = s.id AND sc.client_login = ?
                 )
               ORDER BY s.slot_date ASC, s.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, clientLogin)
	if err != nil {
		return nil, err
	}
	return collectSlotDetails(rows)
}

// ListByTrainer returns all slots belonging to a trainer, most recent
// date first with times ascending within a date.
func (r *SlotRepo) ListByTrainer(ctx context.Context, trainerLogin string) ([]SlotDetail, error) {
	const q = `SELECT ` + slotDetailColumns + `
               FROM slots s
               JOIN users u ON u.login = s.trainer_login
               WHERE s.trainer_login = ?
               ORDER BY s.slot_date DESC, s.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q, trainerLogin)
	if err != nil {
		return nil, err
	}
	return collectSlotDetails(rows)
}

// ListAll returns every slot with its trainer name. Admin use only.
func (r *SlotRepo) ListAll(ctx context.Context) ([]SlotDetail, error) {
	const q = `SELECT ` + slotDetailColumns + `
               FROM slots s
               JOIN users u ON u.login = s.trainer_login
               ORDER BY s.slot_date DESC, s.start_time ASC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectSlotDetails(rows)
}

// UpdateByIDAndOwner updates a slot's schedule fields if it belongs to
// the given trainer. It only performs the UPDATE when there is at least
// one differing field; otherwise it returns ErrNoChange. When the
// row/ownership doesn't match it returns sql.ErrNoRows.
func (r *SlotRepo) UpdateByIDAndOwner(ctx context.Context, s *model.Slot, trainerLogin string) error {
	const q = `UPDATE slots
               SET description = ?, slot_date = ?, start_time = ?, end_time = ?, quantity = ?, updated_at = CURRENT_TIMESTAMP
               WHERE id = ? AND trainer_login = ?
                 AND (description <> ? OR slot_date <> ? OR start_time <> ? OR end_time <> ? OR quantity <> ?)`
	res, err := r.db.ExecContext(ctx, q,
		s.Description, s.SlotDate, s.StartTime, s.EndTime, s.Quantity, // SET
		s.ID, trainerLogin, // WHERE (record + owner)
		s.Description, s.SlotDate, s.StartTime, s.EndTime, s.Quantity, // only if at least one field differs
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	// Determine if it's "not found/ownership" or simply "no change".
	var one int
	err = r.db.QueryRowContext(ctx,
		`SELECT 1 FROM slots WHERE id = ? AND trainer_login = ? LIMIT 1`,
		s.ID, trainerLogin).Scan(&one)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sql.ErrNoRows
		}
		return err
	}
	return ErrNoChange
}
