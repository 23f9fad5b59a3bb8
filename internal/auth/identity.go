// Package auth provides the local identity provider: accounts, password
// hashing, persisted sessions and sign-in state notifications.
package auth

import "context"

// Identity is the signed-in user as seen by the rest of the app.
// A nil *Identity means nobody is signed in.
type Identity struct {
	ID        string
	Email     string
	SessionID string
}

// Provider is the identity provider contract consumed by the session layer.
type Provider interface {
	// Subscribe registers fn for sign-in state notifications. fn receives the
	// current identity (or nil) once the provider knows it, then again on
	// every change. The returned function cancels the subscription.
	Subscribe(fn func(*Identity)) (unsubscribe func())
	// SignOut ends the current session. Subscribers learn about it through
	// a notification, not from the return value.
	SignOut(ctx context.Context) error
}
