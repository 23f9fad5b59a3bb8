package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/ontask/internal/db"
)

type countingEvents struct{ events []string }

func (c *countingEvents) RecordAuthEvent(event string) { c.events = append(c.events, event) }

func newTestProvider(t *testing.T) (*LocalProvider, *db.DB, string) {
	t.Helper()
	dir := t.TempDir()
	database, err := db.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	sessionFile := filepath.Join(dir, "session")
	p := NewLocalProvider(database, LocalConfig{
		SessionFile: sessionFile,
		Hasher:      fastArgon2(),
	})
	return p, database, sessionFile
}

// collect subscribes and returns a channel fed with every notification
func collect(t *testing.T, p *LocalProvider) (<-chan *Identity, func()) {
	t.Helper()
	ch := make(chan *Identity, 16)
	unsub := p.Subscribe(func(ident *Identity) { ch <- ident })
	t.Cleanup(unsub)
	return ch, unsub
}

func next(t *testing.T, ch <-chan *Identity) *Identity {
	t.Helper()
	select {
	case ident := <-ch:
		return ident
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return nil
	}
}

func expectNone(t *testing.T, ch <-chan *Identity) {
	t.Helper()
	select {
	case ident := <-ch:
		t.Fatalf("unexpected notification: %+v", ident)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNoNotificationBeforeRestore(t *testing.T) {
	p, _, _ := newTestProvider(t)
	ch, _ := collect(t, p)

	expectNone(t, ch)

	if err := p.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if ident := next(t, ch); ident != nil {
		t.Fatalf("first notification = %+v, want signed out", ident)
	}
}

func TestSignUpNotifiesAndWritesProfile(t *testing.T) {
	p, database, sessionFile := newTestProvider(t)
	ctx := context.Background()
	if err := p.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	ch, _ := collect(t, p)
	if ident := next(t, ch); ident != nil {
		t.Fatalf("initial = %+v", ident)
	}

	ident, err := p.SignUp(ctx, " A@B.com ", "password1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if ident.Email != "a@b.com" {
		t.Errorf("email = %q", ident.Email)
	}

	got := next(t, ch)
	if got == nil || got.ID != ident.ID {
		t.Fatalf("notification = %+v, want %+v", got, ident)
	}

	profile, err := database.GetRecord(ctx, db.CollectionUsers, ident.ID)
	if err != nil {
		t.Fatalf("profile record: %v", err)
	}
	if profile.String("createdAt") == "" {
		t.Error("profile createdAt not set")
	}

	if _, err := os.Stat(sessionFile); err != nil {
		t.Errorf("session file missing: %v", err)
	}

	if _, err := p.SignUp(ctx, "a@b.com", "password1"); !errors.Is(err, ErrAccountExists) {
		t.Errorf("second SignUp err = %v", err)
	}
}

func TestSignInValidation(t *testing.T) {
	p, _, _ := newTestProvider(t)
	ctx := context.Background()

	tests := []struct {
		email, password string
		want            error
	}{
		{"", "password1", ErrEmailRequired},
		{"nope", "password1", ErrInvalidEmail},
		{"a@", "password1", ErrInvalidEmail},
		{"a@b.com", "", ErrPasswordRequired},
		{"a@b.com", "short", ErrPasswordTooShort},
		{"a@b.com", "password1", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		if _, err := p.SignIn(ctx, tt.email, tt.password); !errors.Is(err, tt.want) {
			t.Errorf("SignIn(%q, %q) err = %v, want %v", tt.email, tt.password, err, tt.want)
		}
	}
}

func TestSignInWrongPassword(t *testing.T) {
	p, _, _ := newTestProvider(t)
	ctx := context.Background()
	events := &countingEvents{}
	p.events = events

	if _, err := p.SignUp(ctx, "a@b.com", "password1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if _, err := p.SignIn(ctx, "a@b.com", "password2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("SignIn err = %v", err)
	}
	if ident, err := p.SignIn(ctx, "a@b.com", "password1"); err != nil || ident == nil {
		t.Fatalf("SignIn = %v, %v", ident, err)
	}

	want := []string{"signup", "signin", "signin_failed", "signin"}
	if len(events.events) != len(want) {
		t.Fatalf("events = %v, want %v", events.events, want)
	}
	for i := range want {
		if events.events[i] != want[i] {
			t.Fatalf("events = %v, want %v", events.events, want)
		}
	}
}

func TestSignOutNotifiesAbsent(t *testing.T) {
	p, _, sessionFile := newTestProvider(t)
	ctx := context.Background()
	p.Restore(ctx)

	if _, err := p.SignUp(ctx, "a@b.com", "password1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	ch, _ := collect(t, p)
	if ident := next(t, ch); ident == nil {
		t.Fatal("expected signed-in identity first")
	}

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if ident := next(t, ch); ident != nil {
		t.Fatalf("after SignOut = %+v, want nil", ident)
	}
	if _, err := os.Stat(sessionFile); !os.IsNotExist(err) {
		t.Errorf("session file should be removed, stat err = %v", err)
	}

	if err := p.SignOut(ctx); !errors.Is(err, ErrNotSignedIn) {
		t.Errorf("second SignOut err = %v", err)
	}
}

func TestRestoreFromSessionFile(t *testing.T) {
	p, database, sessionFile := newTestProvider(t)
	ctx := context.Background()
	p.Restore(ctx)

	ident, err := p.SignUp(ctx, "a@b.com", "password1")
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	// A second process sharing the same files
	other := NewLocalProvider(database, LocalConfig{SessionFile: sessionFile, Hasher: fastArgon2()})
	if err := other.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	got, ready := other.Current()
	if !ready || got == nil || got.ID != ident.ID || got.SessionID != ident.SessionID {
		t.Fatalf("Current() = %+v, %v", got, ready)
	}
}

func TestRestoreExpiredSession(t *testing.T) {
	dir := t.TempDir()
	database, err := db.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	defer database.Close()
	ctx := context.Background()
	sessionFile := filepath.Join(dir, "session")

	p := NewLocalProvider(database, LocalConfig{SessionFile: sessionFile, SessionMaxAge: time.Nanosecond, Hasher: fastArgon2()})
	p.Restore(ctx)
	if _, err := p.SignUp(ctx, "a@b.com", "password1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	other := NewLocalProvider(database, LocalConfig{SessionFile: sessionFile, Hasher: fastArgon2()})
	if err := other.Restore(ctx); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if got, ready := other.Current(); !ready || got != nil {
		t.Fatalf("Current() = %+v, %v; want signed out", got, ready)
	}
	if _, err := os.Stat(sessionFile); !os.IsNotExist(err) {
		t.Error("expired session file should be removed")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	p, _, _ := newTestProvider(t)
	ctx := context.Background()
	p.Restore(ctx)

	ch, unsub := collect(t, p)
	next(t, ch)
	unsub()
	unsub() // idempotent

	if _, err := p.SignUp(ctx, "a@b.com", "password1"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	expectNone(t, ch)
}
