package model

import "time"

// User represents an application user record as stored in the
// `users` table. Users are keyed by their login rather than a
// numeric id; the login doubles as the foreign key used by slots,
// bookings and notifications. The json tags are omitted here
// because these structs are primarily used internally by the
// repository layer; handlers define separate response types with
// appropriate JSON tags.
//
// Fields:
//  Login        – unique login, primary key.
//  PasswordHash – bcrypt hashed password.
//  Name         – display name shown in notifications.
//  Role         – role name (TRAINER, CLIENT or ADMIN).
//  Specialties  – free text, only meaningful for trainers.
//  Bio          – free text profile description.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
	Login        string    // users.login
	PasswordHash string    // users.password_hash
	Name         string    // users.name
	Role         string    // users.role
	Specialties  *string   // users.specialties (nullable)
	Bio          *string   // users.bio (nullable)
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA-256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  UserLogin – owner of the token.
//  TokenHash – SHA-256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  RevokedAt – when the token was revoked (null if still active).
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserLogin string     // refresh_tokens.user_login
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
