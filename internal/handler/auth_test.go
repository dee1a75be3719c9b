package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/getapp/slot-reservation/internal/config"
	"github.com/getapp/slot-reservation/internal/repository"
	"github.com/getapp/slot-reservation/internal/utils"
)

func testCfg() config.Config {
	return config.Config{
		Env:            "test",
		JWTSecret:      "secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     4,
	}
}

func setupAuthMock(t *testing.T) (*AuthHandler, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	h := NewAuthHandler(testCfg(), repository.NewUserRepo(db), repository.NewTokenRepo(db))
	closer := func() { db.Close() }
	return h, mock, closer
}

func jsonReq(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRegisterCreatesUserAndTokens(t *testing.T) {
	h, mock, close := setupAuthMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("alice", sqlmock.AnyArg(), "Alice", repository.RoleClient, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WithArgs("alice", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := jsonReq(t, http.MethodPost, "/v1/auth/register",
		`{"login":"Alice","password":"secret","name":"Alice","role":"CLIENT"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "alice", resp.User.Login)
	require.Equal(t, repository.RoleClient, resp.User.Role)
	require.NotEmpty(t, resp.Access.Token)
	require.Len(t, resp.Refresh.Token, 96)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterAdminRoleIsDowngraded(t *testing.T) {
	h, mock, close := setupAuthMock(t)
	defer close()

	// Self-service registration can never mint an admin account.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("eve", sqlmock.AnyArg(), "Eve", repository.RoleClient, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO refresh_tokens")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c, rec := jsonReq(t, http.MethodPost, "/v1/auth/register",
		`{"login":"eve","password":"secret","name":"Eve","role":"ADMIN"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusCreated, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterDuplicateLogin(t *testing.T) {
	h, mock, close := setupAuthMock(t)
	defer close()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&duplicateErr{})

	c, rec := jsonReq(t, http.MethodPost, "/v1/auth/register",
		`{"login":"alice","password":"secret","name":"Alice"}`)
	require.NoError(t, h.Register(c))
	require.Equal(t, http.StatusConflict, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

type duplicateErr struct{}

func (*duplicateErr) Error() string { return "Error 1062 (23000): Duplicate entry" }

func TestLoginWrongPassword(t *testing.T) {
	h, mock, close := setupAuthMock(t)
	defer close()

	hash, err := utils.HashPassword("right", 4)
	require.NoError(t, err)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login=?")).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"login", "password_hash", "name", "role", "specialties", "bio", "created_at", "updated_at"}).
			AddRow("alice", hash, "Alice", repository.RoleClient, nil, nil, now, now))

	c, rec := jsonReq(t, http.MethodPost, "/v1/auth/login",
		`{"login":"alice","password":"wrong"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownUser(t *testing.T) {
	h, mock, close := setupAuthMock(t)
	defer close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE login=?")).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	c, rec := jsonReq(t, http.MethodPost, "/v1/auth/login",
		`{"login":"ghost","password":"x"}`)
	require.NoError(t, h.Login(c))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
