// Package session holds the sign-in state shared by every view. It
// subscribes to an identity provider once, keeps the latest identity and
// exposes changes to the bubbletea loop as messages.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/ontask/internal/auth"
)

// IdentityChangedMsg is sent when the provider reports a new sign-in state.
// Identity is nil when nobody is signed in.
type IdentityChangedMsg struct {
	Identity *auth.Identity
}

// StoppedMsg is returned by WaitForChange once the session is stopped
type StoppedMsg struct{}

// Session tracks the current identity and whether the first provider
// notification has arrived yet
type Session struct {
	provider auth.Provider
	logger   *slog.Logger

	mu       sync.Mutex
	identity *auth.Identity
	loading  bool
	started  bool
	closed   bool

	unsubscribe func()
	stopOnce    sync.Once

	changed chan struct{}
	done    chan struct{}
}

// New creates a session for provider. It is loading until Start is called
// and the provider reports the initial state.
func New(provider auth.Provider, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		provider: provider,
		logger:   logger,
		loading:  true,
		changed:  make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
}

// Start subscribes to the provider. Calling it again is a no-op.
func (s *Session) Start() {
	s.mu.Lock()
	if s.started || s.closed {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.mu.Unlock()

	unsub := s.provider.Subscribe(s.handle)

	s.mu.Lock()
	s.unsubscribe = unsub
	closed := s.closed
	s.mu.Unlock()

	// Stop raced with Subscribe
	if closed {
		unsub()
	}
}

// Stop releases the subscription exactly once. No state changes are made
// after it returns.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		unsub := s.unsubscribe
		s.mu.Unlock()

		if unsub != nil {
			unsub()
		}
		close(s.done)
	})
}

func (s *Session) handle(ident *auth.Identity) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.identity = ident
	s.loading = false
	s.mu.Unlock()

	userID := ""
	if ident != nil {
		userID = ident.ID
	}
	s.logger.Debug("identity changed", slog.String("user_id", userID))

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Identity returns the current identity, nil when signed out
func (s *Session) Identity() *auth.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.identity
}

// Loading reports whether the initial sign-in state is still unknown
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Logout asks the provider to end the session. The resulting identity
// change arrives later through WaitForChange.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.provider.SignOut(ctx); err != nil {
		return fmt.Errorf("sign out: %w", err)
	}
	return nil
}

// WaitForChange blocks until the identity changes and reports the state at
// that moment. Several changes between calls are delivered as one message
// carrying the latest identity.
func (s *Session) WaitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.changed:
			return IdentityChangedMsg{Identity: s.Identity()}
		case <-s.done:
			return StoppedMsg{}
		}
	}
}
