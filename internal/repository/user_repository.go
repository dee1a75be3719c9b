package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/getapp/slot-reservation/internal/model"
	"github.com/getapp/slot-reservation/internal/utils"
)

// Role values stored in users.role. Slots belong to trainers,
// bookings belong to clients; admins only read.
const (
	RoleTrainer = "TRAINER"
	RoleClient  = "CLIENT"
	RoleAdmin   = "ADMIN"
)

type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

var ErrLoginExists = errors.New("login already exists")

// Create inserts a user and hashes the password with the given bcrypt cost.
func (r *UserRepo) Create(ctx context.Context, login, password, name, role string, specialties, bio *string, cost int) error {
	login = strings.ToLower(strings.TrimSpace(login))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (login, password_hash, name, role, specialties, bio) VALUES (?,?,?,?,?,?)",
		login, hash, name, role, specialties, bio)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrLoginExists
		}
		return err
	}
	return nil
}

// GetByLogin fetches a user by normalized login.
func (r *UserRepo) GetByLogin(ctx context.Context, login string) (model.User, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		"SELECT login,password_hash,name,role,specialties,bio,created_at,updated_at FROM users WHERE login=? LIMIT 1",
		login).Scan(&u.Login, &u.PasswordHash, &u.Name, &u.Role, &u.Specialties, &u.Bio, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// ResolveRole returns the role stored for the login, or sql.ErrNoRows
// when the login is unknown. The allocator uses this as its user
// directory lookup before touching slot state.
func (r *UserRepo) ResolveRole(ctx context.Context, login string) (string, error) {
	login = strings.ToLower(strings.TrimSpace(login))
	var role string
	err := r.DB.QueryRowContext(ctx,
		"SELECT role FROM users WHERE login=? LIMIT 1", login).Scan(&role)
	return role, err
}

// ListAll returns every user ordered by login. Admin use only.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT login,password_hash,name,role,specialties,bio,created_at,updated_at FROM users ORDER BY login ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Login, &u.PasswordHash, &u.Name, &u.Role, &u.Specialties, &u.Bio, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// ListByRole returns all users holding the given role ordered by login.
// Used by the public trainers directory.
func (r *UserRepo) ListByRole(ctx context.Context, role string) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT login,password_hash,name,role,specialties,bio,created_at,updated_at FROM users WHERE role=? ORDER BY login ASC",
		role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := make([]model.User, 0)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.Login, &u.PasswordHash, &u.Name, &u.Role, &u.Specialties, &u.Bio, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateProfile changes name, bio and, for trainers only, specialties.
// Specialties are forced to null for any other role. Returns
// sql.ErrNoRows when the login does not exist.
func (r *UserRepo) UpdateProfile(ctx context.Context, login, name string, bio, specialties *string) error {
	login = strings.ToLower(strings.TrimSpace(login))
	role, err := r.ResolveRole(ctx, login)
	if err != nil {
		return err
	}
	if role != RoleTrainer {
		specialties = nil
	}
	_, err = r.DB.ExecContext(ctx,
		"UPDATE users SET name=?, bio=?, specialties=?, updated_at=CURRENT_TIMESTAMP WHERE login=?",
		name, bio, specialties, login)
	return err
}
