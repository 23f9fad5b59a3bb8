package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dori/ontask/internal/auth"
)

// fakeProvider records subscriptions and lets the test emit notifications
// synchronously
type fakeProvider struct {
	mu           sync.Mutex
	fns          map[int]func(*auth.Identity)
	nextID       int
	subscribed   int
	unsubscribed int
	signOutErr   error
	signOuts     int
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{fns: make(map[int]func(*auth.Identity))}
}

func (f *fakeProvider) Subscribe(fn func(*auth.Identity)) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := f.nextID
	f.fns[id] = fn
	f.subscribed++
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.fns, id)
		f.unsubscribed++
	}
}

func (f *fakeProvider) SignOut(ctx context.Context) error {
	f.mu.Lock()
	f.signOuts++
	err := f.signOutErr
	f.mu.Unlock()
	if err == nil {
		f.emitAll(nil)
	}
	return err
}

// emitAll calls every subscribed callback synchronously
func (f *fakeProvider) emitAll(ident *auth.Identity) {
	f.mu.Lock()
	fns := make([]func(*auth.Identity), 0, len(f.fns))
	for _, fn := range f.fns {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn(ident)
	}
}

func waitMsg(t *testing.T, s *Session) any {
	t.Helper()
	ch := make(chan any, 1)
	go func() { ch <- s.WaitForChange()() }()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for change")
		return nil
	}
}

func TestLoadingUntilFirstNotification(t *testing.T) {
	p := newFakeProvider()
	s := New(p, nil)
	defer s.Stop()

	if !s.Loading() {
		t.Fatal("new session should be loading")
	}
	s.Start()
	if !s.Loading() || s.Identity() != nil {
		t.Fatal("still loading before the provider reports")
	}

	p.emitAll(nil)
	if s.Loading() {
		t.Error("loading should clear on first notification, even when signed out")
	}
	if s.Identity() != nil {
		t.Error("identity should be absent")
	}
	msg := waitMsg(t, s)
	if m, ok := msg.(IdentityChangedMsg); !ok || m.Identity != nil {
		t.Errorf("msg = %#v", msg)
	}
}

func TestIdentityChangesAreCoalesced(t *testing.T) {
	p := newFakeProvider()
	s := New(p, nil)
	defer s.Stop()
	s.Start()

	p.emitAll(&auth.Identity{ID: "u1"})
	p.emitAll(&auth.Identity{ID: "u2"})

	msg := waitMsg(t, s).(IdentityChangedMsg)
	if msg.Identity == nil || msg.Identity.ID != "u2" {
		t.Fatalf("msg identity = %+v, want u2", msg.Identity)
	}
	if s.Identity().ID != "u2" {
		t.Errorf("Identity() = %+v", s.Identity())
	}
}

func TestStartSubscribesOnceAndStopUnsubscribesOnce(t *testing.T) {
	p := newFakeProvider()
	s := New(p, nil)
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	if p.subscribed != 1 {
		t.Errorf("subscribed = %d, want 1", p.subscribed)
	}
	if p.unsubscribed != 1 {
		t.Errorf("unsubscribed = %d, want 1", p.unsubscribed)
	}
}

func TestNoStateWritesAfterStop(t *testing.T) {
	p := newFakeProvider()
	s := New(p, nil)
	s.Start()

	// Keep a handle on the callback so it can fire after unsubscribe
	p.mu.Lock()
	var fn func(*auth.Identity)
	for _, f := range p.fns {
		fn = f
	}
	p.mu.Unlock()

	s.Stop()
	fn(&auth.Identity{ID: "late"})

	if s.Identity() != nil {
		t.Errorf("identity written after Stop: %+v", s.Identity())
	}
	if !s.Loading() {
		t.Error("loading cleared after Stop")
	}
	if _, ok := waitMsg(t, s).(StoppedMsg); !ok {
		t.Error("WaitForChange should report StoppedMsg after Stop")
	}
}

func TestLogoutDeliversAbsentThroughNotification(t *testing.T) {
	p := newFakeProvider()
	s := New(p, nil)
	defer s.Stop()
	s.Start()

	p.emitAll(&auth.Identity{ID: "u1"})
	waitMsg(t, s)

	if err := s.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	msg := waitMsg(t, s).(IdentityChangedMsg)
	if msg.Identity != nil {
		t.Errorf("after logout identity = %+v", msg.Identity)
	}
}

func TestLogoutPropagatesError(t *testing.T) {
	p := newFakeProvider()
	p.signOutErr = auth.ErrNotSignedIn
	s := New(p, nil)
	defer s.Stop()
	s.Start()

	err := s.Logout(context.Background())
	if !errors.Is(err, auth.ErrNotSignedIn) {
		t.Fatalf("Logout err = %v", err)
	}
	if p.signOuts != 1 {
		t.Errorf("signOuts = %d", p.signOuts)
	}
}
