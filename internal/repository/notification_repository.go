// Package repository contains persistence for user notifications. Rows
// are only created by the fan-out after a capacity-changing event and
// only mutated to flip the read flag; this layer never deletes them.
// The related_slot_id column is a weak reference with no foreign key:
// notifications outlive the slot they point at, including notifications
// about the deletion itself.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/getapp/slot-reservation/internal/model"
)

// NotificationRepo provides data access to the user_notifications table.
type NotificationRepo struct {
	db *sql.DB
}

// NewNotificationRepo returns a NotificationRepo bound to the given database.
func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts one unread notification and populates the generated ID
// and server-assigned creation timestamp on the given record.
func (r *NotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO user_notifications (user_login, message, is_read, related_slot_id) VALUES (?, ?, FALSE, ?)`,
		n.UserLogin, n.Message, n.RelatedSlotID)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	n.ID = uint64(id)
	return r.db.QueryRowContext(ctx,
		`SELECT is_read, created_at FROM user_notifications WHERE id = ?`, n.ID).
		Scan(&n.IsRead, &n.CreatedAt)
}

// CreateBulk inserts multiple notifications in a single statement.
// Passing an empty slice has no effect and returns nil.
func (r *NotificationRepo) CreateBulk(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	query := `INSERT INTO user_notifications (user_login, message, is_read, related_slot_id) VALUES `
	args := make([]interface{}, 0, len(ns)*3)
	for i, n := range ns {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, FALSE, ?)"
		args = append(args, n.UserLogin, n.Message, n.RelatedSlotID)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListUnreadByUser returns the user's unread notifications, newest first.
func (r *NotificationRepo) ListUnreadByUser(ctx context.Context, userLogin string) ([]model.Notification, error) {
	const q = `SELECT id, user_login, message, is_read, created_at, related_slot_id
               FROM user_notifications
               WHERE user_login = ? AND is_read = FALSE
               ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, userLogin)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

// ListAll returns every notification, newest first. Admin use only.
func (r *NotificationRepo) ListAll(ctx context.Context) ([]model.Notification, error) {
	const q = `SELECT id, user_login, message, is_read, created_at, related_slot_id
               FROM user_notifications
               ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectNotifications(rows)
}

func collectNotifications(rows *sql.Rows) ([]model.Notification, error) {
	defer rows.Close()
	ns := make([]model.Notification, 0)
	for rows.Next() {
		var (
			n       model.Notification
			slotRef sql.NullInt64
			created time.Time
		)
		if err := rows.Scan(&n.ID, &n.UserLogin, &n.Message, &n.IsRead, &created, &slotRef); err != nil {
			return nil, err
		}
		n.CreatedAt = created.UTC()
		if slotRef.Valid {
			id := uint64(slotRef.Int64)
			n.RelatedSlotID = &id
		}
		ns = append(ns, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ns, nil
}

// MarkRead flips the read flag on a single notification owned by the
// given user. It returns ErrNotificationNotFound when the id does not
// belong to the user; marking an already-read notification succeeds
// and changes nothing.
func (r *NotificationRepo) MarkRead(ctx context.Context, id uint64, userLogin string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE user_notifications SET is_read = TRUE WHERE id = ? AND user_login = ?`,
		id, userLogin)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// The MySQL driver counts changed rows, not matched rows, so an
		// already-read notification also lands here. Check whether the
		// row exists for this user before reporting not found.
		var one int
		err := r.db.QueryRowContext(ctx,
			`SELECT 1 FROM user_notifications WHERE id = ? AND user_login = ?`,
			id, userLogin).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
