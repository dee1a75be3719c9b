package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/getapp/slot-reservation/internal/model"
)

func setupSlotMock(t *testing.T) (*SlotRepo, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewSlotRepo(db)
	closer := func() { db.Close() }
	return repo, mock, closer
}

func TestSlotCreateReadsBackRow(t *testing.T) {
	repo, mock, close := setupSlotMock(t)
	defer close()

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO slots (trainer_login, description, slot_date, start_time, end_time, quantity)")).
		WithArgs("coach", "Morning yoga", "2026-09-01", "10:00:00", "11:00:00", 5).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM slots WHERE id = ?")).
		WithArgs(uint64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "trainer_login", "description", "slot_date", "start_time", "end_time", "quantity", "created_at", "updated_at"}).
			AddRow(42, "coach", "Morning yoga", "2026-09-01", "10:00:00", "11:00:00", 5, now, now))

	s := &model.Slot{
		TrainerLogin: "coach",
		Description:  "Morning yoga",
		SlotDate:     "2026-09-01",
		StartTime:    "10:00:00",
		EndTime:      "11:00:00",
		Quantity:     5,
	}
	require.NoError(t, repo.Create(context.Background(), s))
	require.Equal(t, uint64(42), s.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustQuantityGuardsAgainstNegative(t *testing.T) {
	repo, mock, close := setupSlotMock(t)
	defer close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE slots SET quantity = quantity + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND quantity + ? >= 0")).
		WithArgs(-1, uint64(7), -1).
		WillReturnResult(sqlmock.NewResult(0, 0)) // guard rejected the decrement

	db := repo.DB()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)

	err = repo.AdjustQuantityTx(context.Background(), tx, 7, -1)
	require.ErrorIs(t, err, ErrSlotFull)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByIDAndOwnerNoChange(t *testing.T) {
	repo, mock, close := setupSlotMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE slots")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots WHERE id = ? AND trainer_login = ? LIMIT 1")).
		WithArgs(uint64(7), "coach").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	s := &model.Slot{ID: 7, Description: "Same", SlotDate: "2026-09-01", StartTime: "10:00:00", EndTime: "11:00:00", Quantity: 5}
	err := repo.UpdateByIDAndOwner(context.Background(), s, "coach")
	require.ErrorIs(t, err, ErrNoChange)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateByIDAndOwnerWrongOwner(t *testing.T) {
	repo, mock, close := setupSlotMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE slots")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM slots WHERE id = ? AND trainer_login = ? LIMIT 1")).
		WithArgs(uint64(7), "intruder").
		WillReturnError(sql.ErrNoRows)

	s := &model.Slot{ID: 7, Description: "Hijack", SlotDate: "2026-09-01", StartTime: "10:00:00", EndTime: "11:00:00", Quantity: 5}
	err := repo.UpdateByIDAndOwner(context.Background(), s, "intruder")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableForClientFilters(t *testing.T) {
	repo, mock, close := setupSlotMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.quantity > 0")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "trainer_login", "description", "slot_date", "start_time", "end_time", "quantity", "name"}).
			AddRow(1, "coach", "Yoga", "2026-09-01", "10:00:00", "11:00:00", 3, "Coach Carter"))

	out, err := repo.ListAvailableForClient(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "Coach Carter", out[0].TrainerName)
	require.Equal(t, 3, out[0].Quantity)
	require.NoError(t, mock.ExpectationsWereMet())
}
