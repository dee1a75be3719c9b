package handler

import (
	"database/sql"
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/getapp/slot-reservation/internal/repository"
)

func setupUserHandlerMock(t *testing.T) (*UserHandler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	h := NewUserHandler(repository.NewUserRepo(db))
	closer := func() { db.Close() }
	return h, mock, closer
}

func TestGetProfileNotFound(t *testing.T) {
	h, mock, close := setupUserHandlerMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login=?")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	c, rec := authedCtx(t, http.MethodGet, "/v1/users/ghost", "", "")
	c.SetParamNames("login")
	c.SetParamValues("ghost")

	require.NoError(t, h.GetProfile(c))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileOnlySelf(t *testing.T) {
	h, mock, close := setupUserHandlerMock(t)
	defer close()

	c, rec := authedJSONCtx(t, http.MethodPut, "/v1/users/coach",
		`{"name":"Hijacked"}`, "rival", repository.RoleTrainer)
	c.SetParamNames("login")
	c.SetParamValues("coach")

	require.NoError(t, h.UpdateProfile(c))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileAdminMayEditAnyone(t *testing.T) {
	h, mock, close := setupUserHandlerMock(t)
	defer close()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users")).
		WithArgs("coach").
		WillReturnRows(sqlmock.NewRows([]string{"role"}).AddRow(repository.RoleTrainer))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET name=?")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login=?")).
		WithArgs("coach").
		WillReturnRows(sqlmock.NewRows([]string{"login", "password_hash", "name", "role", "specialties", "bio", "created_at", "updated_at"}).
			AddRow("coach", "h", "Renamed", repository.RoleTrainer, nil, nil, now, now))

	c, rec := authedJSONCtx(t, http.MethodPut, "/v1/users/coach",
		`{"name":"Renamed"}`, "root", repository.RoleAdmin)
	c.SetParamNames("login")
	c.SetParamValues("coach")

	require.NoError(t, h.UpdateProfile(c))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Renamed")
	require.NoError(t, mock.ExpectationsWereMet())
}
