package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dori/ontask/internal/db"
	"github.com/dori/ontask/internal/model"
)

const minPasswordLen = 8

// Store is the persistence the local provider needs
type Store interface {
	CreateAccount(ctx context.Context, email, passwordHash string) (*db.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*db.Account, error)
	GetAccount(ctx context.Context, id string) (*db.Account, error)
	CreateSession(ctx context.Context, accountID, tokenHash string, maxAge time.Duration) (*db.AuthSession, error)
	GetSessionByHash(ctx context.Context, tokenHash string) (*db.AuthSession, error)
	DeleteSession(ctx context.Context, id string) error
	PutRecord(ctx context.Context, collection, id string, data map[string]any) (*db.Document, error)
	LogActivity(ctx context.Context, ownerID, kind string, fields map[string]any) error
}

// EventRecorder counts auth events. Optional.
type EventRecorder interface {
	RecordAuthEvent(event string)
}

// LocalConfig configures a LocalProvider
type LocalConfig struct {
	SessionFile   string        // where the raw session token is kept
	SessionMaxAge time.Duration // default 30 days
	Hasher        PasswordHasher
	Logger        *slog.Logger
	Events        EventRecorder
}

// LocalProvider is an identity provider backed by the local database.
// The raw session token lives in a file so the CLI and the TUI share it.
type LocalProvider struct {
	store       Store
	hasher      PasswordHasher
	sessionFile string
	maxAge      time.Duration
	logger      *slog.Logger
	events      EventRecorder

	mu      sync.Mutex
	ready   bool
	current *Identity
	subs    map[int]*subscriber
	nextID  int
}

var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a provider. Call Restore to load the persisted
// session; until then subscribers receive nothing.
func NewLocalProvider(store Store, cfg LocalConfig) *LocalProvider {
	if cfg.SessionMaxAge <= 0 {
		cfg.SessionMaxAge = 30 * 24 * time.Hour
	}
	if cfg.Hasher == nil {
		cfg.Hasher = NewArgon2()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &LocalProvider{
		store:       store,
		hasher:      cfg.Hasher,
		sessionFile: cfg.SessionFile,
		maxAge:      cfg.SessionMaxAge,
		logger:      cfg.Logger,
		events:      cfg.Events,
		subs:        make(map[int]*subscriber),
	}
}

// Subscribe implements Provider
func (p *LocalProvider) Subscribe(fn func(*Identity)) (unsubscribe func()) {
	sub := newSubscriber(fn)

	p.mu.Lock()
	p.nextID++
	id := p.nextID
	p.subs[id] = sub
	if p.ready {
		sub.push(p.current)
	}
	p.mu.Unlock()

	go sub.run()

	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
		sub.stop()
	}
}

// Current returns the signed-in identity and whether the provider has
// finished restoring its state
func (p *LocalProvider) Current() (*Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.ready
}

// Restore loads the persisted session, if any, and marks the provider
// ready. Missing, unknown and expired sessions restore as signed out.
// On a store error the provider is still marked ready, signed out.
func (p *LocalProvider) Restore(ctx context.Context) error {
	ident, err := p.restore(ctx)
	if errors.Is(err, ErrSessionExpired) {
		p.removeSessionFile()
		err = nil
	}
	p.setCurrent(ident)
	return err
}

func (p *LocalProvider) restore(ctx context.Context) (*Identity, error) {
	raw, err := os.ReadFile(p.sessionFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return nil, nil
	}

	session, err := p.store.GetSessionByHash(ctx, hashToken(token))
	if err != nil {
		return nil, err
	}
	if session == nil {
		p.removeSessionFile()
		return nil, nil
	}
	if time.Now().After(session.ExpiresAt) {
		p.logger.Info("session expired", slog.String("session_id", session.ID))
		if err := p.store.DeleteSession(ctx, session.ID); err != nil {
			return nil, err
		}
		return nil, ErrSessionExpired
	}

	account, err := p.store.GetAccount(ctx, session.AccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		p.removeSessionFile()
		return nil, nil
	}

	return &Identity{ID: account.ID, Email: account.Email, SessionID: session.ID}, nil
}

// SignUp creates an account with its profile record and signs it in
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Identity, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	hash, err := p.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account, err := p.store.CreateAccount(ctx, email, hash)
	if errors.Is(err, db.ErrDuplicate) {
		return nil, ErrAccountExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	_, err = p.store.PutRecord(ctx, db.CollectionUsers, account.ID, map[string]any{
		"email":     account.Email,
		"createdAt": model.FormatJoined(account.CreatedAt),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if err := p.store.LogActivity(ctx, account.ID, "signup", nil); err != nil {
		return nil, err
	}

	p.logger.Info("account created", slog.String("user_id", account.ID))
	p.record("signup")

	return p.startSession(ctx, account)
}

// SignIn verifies credentials and starts a session
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*Identity, error) {
	email, err := validateCredentials(email, password)
	if err != nil {
		return nil, err
	}

	account, err := p.store.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		p.record("signin_failed")
		return nil, ErrInvalidCredentials
	}

	ok, err := p.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		p.record("signin_failed")
		return nil, ErrInvalidCredentials
	}

	return p.startSession(ctx, account)
}

// SignOut implements Provider
func (p *LocalProvider) SignOut(ctx context.Context) error {
	p.mu.Lock()
	current := p.current
	p.mu.Unlock()

	if current == nil {
		return ErrNotSignedIn
	}

	if err := p.store.DeleteSession(ctx, current.SessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	p.removeSessionFile()

	if err := p.store.LogActivity(ctx, current.ID, "signout", nil); err != nil {
		p.logger.Warn("failed to log sign-out", slog.String("error", err.Error()))
	}

	p.logger.Info("signed out", slog.String("user_id", current.ID))
	p.record("signout")
	p.setCurrent(nil)
	return nil
}

func (p *LocalProvider) startSession(ctx context.Context, account *db.Account) (*Identity, error) {
	token, hash, err := newToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	session, err := p.store.CreateSession(ctx, account.ID, hash, p.maxAge)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := p.writeSessionFile(token); err != nil {
		return nil, err
	}
	if err := p.store.LogActivity(ctx, account.ID, "signin", nil); err != nil {
		p.logger.Warn("failed to log sign-in", slog.String("error", err.Error()))
	}

	ident := &Identity{ID: account.ID, Email: account.Email, SessionID: session.ID}
	p.logger.Info("signed in", slog.String("user_id", account.ID))
	p.record("signin")
	p.setCurrent(ident)
	return ident, nil
}

// setCurrent stores the identity, marks the provider ready and notifies
func (p *LocalProvider) setCurrent(ident *Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = ident
	p.ready = true
	for _, sub := range p.subs {
		sub.push(ident)
	}
}

func (p *LocalProvider) writeSessionFile(token string) error {
	if err := os.MkdirAll(filepath.Dir(p.sessionFile), 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	tmp := p.sessionFile + ".tmp"
	if err := os.WriteFile(tmp, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, p.sessionFile); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (p *LocalProvider) removeSessionFile() {
	if err := os.Remove(p.sessionFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		p.logger.Warn("failed to remove session file", slog.String("error", err.Error()))
	}
}

func (p *LocalProvider) record(event string) {
	if p.events != nil {
		p.events.RecordAuthEvent(event)
	}
}

func validateCredentials(email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmailRequired
	}
	if at := strings.Index(email, "@"); at < 1 || at == len(email)-1 {
		return "", ErrInvalidEmail
	}
	if password == "" {
		return "", ErrPasswordRequired
	}
	if len(password) < minPasswordLen {
		return "", ErrPasswordTooShort
	}
	return email, nil
}
