package allocator_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/getapp/slot-reservation/internal/allocator"
	"github.com/getapp/slot-reservation/internal/repository"
)

func setupAllocMock(t *testing.T) (*allocator.Allocator, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	users := repository.NewUserRepo(db)
	slots := repository.NewSlotRepo(db)
	bookings := repository.NewBookingRepo(db)
	alloc := allocator.New(users, slots, bookings)

	closer := func() { db.Close() }
	return alloc, mock, closer
}

func slotRows(quantity int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "trainer_login", "description", "slot_date", "start_time", "end_time", "quantity", "created_at", "updated_at",
	}).AddRow(7, "coach", "Morning yoga", "2026-09-01", "10:00:00", "11:00:00", quantity, now, now)
}

func expectRole(mock sqlmock.Sqlmock, login, role string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE login=? LIMIT 1")).
		WithArgs(login).
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow(role))
}

func expectLockedSlot(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(7)).WillReturnRows(rows)
}

func TestReserveSuccess(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	expectRole(mock, "alice", repository.RoleClient)
	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots_clients WHERE slot_id = ? AND client_login = ? LIMIT 1")).
		WithArgs(uint64(7), "alice").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO slots_clients (slot_id, client_login) VALUES (?, ?)")).
		WithArgs(uint64(7), "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE slots SET quantity = quantity + ?")).
		WithArgs(-1, uint64(7), -1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conf, err := alloc.Reserve(context.Background(), 7, "alice")
	require.NoError(t, err)
	require.Equal(t, uint64(7), conf.SlotID)
	require.Equal(t, "alice", conf.ClientLogin)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSlotFull(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	expectRole(mock, "alice", repository.RoleClient)
	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(0))
	mock.ExpectRollback()

	_, err := alloc.Reserve(context.Background(), 7, "alice")
	require.ErrorIs(t, err, repository.ErrSlotFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveAlreadyBooked(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	expectRole(mock, "alice", repository.RoleClient)
	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(2))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots_clients")).
		WithArgs(uint64(7), "alice").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	_, err := alloc.Reserve(context.Background(), 7, "alice")
	require.ErrorIs(t, err, repository.ErrAlreadyBooked)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveSlotNotFound(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	expectRole(mock, "alice", repository.RoleClient)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(7)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := alloc.Reserve(context.Background(), 7, "alice")
	require.ErrorIs(t, err, repository.ErrSlotNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveRejectsNonClients(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	// A trainer trying to book a seat is rejected before any slot state
	// is touched.
	expectRole(mock, "coach", repository.RoleTrainer)

	_, err := alloc.Reserve(context.Background(), 7, "coach")
	require.ErrorIs(t, err, allocator.ErrNotClient)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveUnknownLogin(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := alloc.Reserve(context.Background(), 7, "ghost")
	require.ErrorIs(t, err, allocator.ErrNotClient)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSuccess(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM slots_clients WHERE slot_id = ? AND client_login = ?")).
		WithArgs(uint64(7), "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE slots SET quantity = quantity + ?")).
		WithArgs(1, uint64(7), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := alloc.Release(context.Background(), 7, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", res.ClientLogin)
	require.Equal(t, "coach", res.Slot.TrainerLogin)
	require.Equal(t, "Morning yoga", res.Slot.Description)
	require.Equal(t, "2026-09-01", res.Slot.SlotDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseMissingBooking(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(2))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM slots_clients")).
		WithArgs(uint64(7), "alice").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	// No capacity credit happens when there was nothing to cancel.
	_, err := alloc.Release(context.Background(), 7, "alice")
	require.ErrorIs(t, err, repository.ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseSlotGone(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(7)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	// Bookings cascade away with their slot, so a vanished slot reads as
	// a missing booking rather than a missing slot.
	_, err := alloc.Release(context.Background(), 7, "alice")
	require.ErrorIs(t, err, repository.ErrBookingNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSlotCapturesClients(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT client_login FROM slots_clients WHERE slot_id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"client_login"}).AddRow("alice").AddRow("bob"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM slots WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	res, err := alloc.DeleteSlot(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, res.ClientLogins)
	require.Equal(t, "coach", res.Slot.TrainerLogin)
	require.Equal(t, uint64(7), res.Slot.SlotID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSlotNotFound(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs(uint64(7)).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := alloc.DeleteSlot(context.Background(), 7)
	require.ErrorIs(t, err, repository.ErrSlotNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

// Walks a two-seat slot through its whole life: two successful
// reservations drain the capacity, a third client bounces off the full
// slot without touching the ledger, a cancellation credits the seat
// back, and deletion captures exactly the clients still booked. Every
// booking row insert/delete is paired with a matching -1/+1 quantity
// adjustment, so seats are neither lost nor invented along the way.
func TestCapacityConservedAcrossReserveReleaseDelete(t *testing.T) {
	alloc, mock, close := setupAllocMock(t)
	defer close()

	reserve := func(login string, remaining int) {
		expectRole(mock, login, repository.RoleClient)
		mock.ExpectBegin()
		expectLockedSlot(mock, slotRows(remaining))
		mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots_clients")).
			WithArgs(uint64(7), login).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO slots_clients")).
			WithArgs(uint64(7), login).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta("UPDATE slots SET quantity = quantity + ?")).
			WithArgs(-1, uint64(7), -1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()
	}

	// alice then bob take the two seats.
	reserve("alice", 2)
	reserve("bob", 1)

	// carol finds the slot full; the transaction rolls back with no
	// insert and no adjustment.
	expectRole(mock, "carol", repository.RoleClient)
	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(0))
	mock.ExpectRollback()

	// alice cancels; her row is removed and the seat is credited back.
	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(0))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM slots_clients")).
		WithArgs(uint64(7), "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE slots SET quantity = quantity + ?")).
		WithArgs(1, uint64(7), 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// The trainer deletes the slot; only bob still holds a seat.
	mock.ExpectBegin()
	expectLockedSlot(mock, slotRows(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT client_login FROM slots_clients WHERE slot_id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"client_login"}).AddRow("bob"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM slots WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	ctx := context.Background()

	_, err := alloc.Reserve(ctx, 7, "alice")
	require.NoError(t, err)
	_, err = alloc.Reserve(ctx, 7, "bob")
	require.NoError(t, err)

	_, err = alloc.Reserve(ctx, 7, "carol")
	require.ErrorIs(t, err, repository.ErrSlotFull)

	rel, err := alloc.Release(ctx, 7, "alice")
	require.NoError(t, err)
	require.Equal(t, "alice", rel.ClientLogin)

	res, err := alloc.DeleteSlot(ctx, 7)
	require.NoError(t, err)
	require.Equal(t, []string{"bob"}, res.ClientLogins)
	require.NoError(t, mock.ExpectationsWereMet())
}
