package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Credits      int       `json:"credits"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser inserts an account with zero credits.
func (s *Store) CreateUser(ctx context.Context, email, hash string) (User, error) {
	u := User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(email),
		PasswordHash: hash,
		CreatedAt:    s.now(),
	}
	_, err := s.DB.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, credits, is_admin, created_at) VALUES ($1,$2,$3,0,false,$4)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt)
	if isUniqueViolation(err) {
		return User{}, ErrDuplicateEmail
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

const userColumns = `id, email, password_hash, credits, is_admin, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Credits, &u.IsAdmin, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=$1`, NormalizeEmail(email)))
}

func (s *Store) GetUser(ctx context.Context, id string) (User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return User{}, ErrNotFound
	}
	return scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

// ListUsers returns accounts newest first.
func (s *Store) ListUsers(ctx context.Context, limit int) ([]User, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// AddCredits grants credits to the account with email and returns the new
// balance.
func (s *Store) AddCredits(ctx context.Context, email string, credits int) (User, error) {
	if credits <= 0 {
		return User{}, errors.New("credits must be positive")
	}
	return scanUser(s.DB.QueryRowContext(ctx,
		`UPDATE users SET credits = credits + $2 WHERE email=$1 RETURNING `+userColumns,
		NormalizeEmail(email), credits))
}

// SetAdmin flags or unflags an account as administrator.
func (s *Store) SetAdmin(ctx context.Context, email string, admin bool) error {
	res, err := s.DB.ExecContext(ctx, `UPDATE users SET is_admin=$2 WHERE email=$1`, NormalizeEmail(email), admin)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
