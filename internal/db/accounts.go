package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrDuplicate is returned when a unique column already holds the value
var ErrDuplicate = errors.New("record already exists")

// Account is a local sign-in account
type Account struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// AuthSession is a signed-in session. Only the token hash is stored.
type AuthSession struct {
	ID        string
	AccountID string
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// CreateAccount inserts a new account. Returns ErrDuplicate if the email is taken.
func (db *DB) CreateAccount(ctx context.Context, email, passwordHash string) (*Account, error) {
	existing, err := db.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrDuplicate
	}

	a := &Account{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO accounts (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)
	`, a.ID, a.Email, a.PasswordHash, a.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	return a, nil
}

// GetAccountByEmail returns the account for email, or nil if none exists
func (db *DB) GetAccountByEmail(ctx context.Context, email string) (*Account, error) {
	return db.getAccount(ctx, `SELECT id, email, password_hash, created_at FROM accounts WHERE email = ?`, email)
}

// GetAccount returns the account with id, or nil if none exists
func (db *DB) GetAccount(ctx context.Context, id string) (*Account, error) {
	return db.getAccount(ctx, `SELECT id, email, password_hash, created_at FROM accounts WHERE id = ?`, id)
}

func (db *DB) getAccount(ctx context.Context, query string, arg string) (*Account, error) {
	var a Account
	err := db.QueryRowContext(ctx, query, arg).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

// CreateSession stores a session for accountID
func (db *DB) CreateSession(ctx context.Context, accountID, tokenHash string, maxAge time.Duration) (*AuthSession, error) {
	now := time.Now()
	s := &AuthSession{
		ID:        uuid.New().String(),
		AccountID: accountID,
		TokenHash: tokenHash,
		ExpiresAt: now.Add(maxAge),
		CreatedAt: now,
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO sessions (id, account_id, token_hash, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, s.ID, s.AccountID, s.TokenHash, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// GetSessionByHash returns the session with tokenHash, or nil if none exists
func (db *DB) GetSessionByHash(ctx context.Context, tokenHash string) (*AuthSession, error) {
	var s AuthSession
	err := db.QueryRowContext(ctx, `
		SELECT id, account_id, token_hash, expires_at, created_at
		FROM sessions WHERE token_hash = ?
	`, tokenHash).Scan(&s.ID, &s.AccountID, &s.TokenHash, &s.ExpiresAt, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session by ID
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions past their expiry and reports how many went
func (db *DB) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, time.Now())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return res.RowsAffected()
}
