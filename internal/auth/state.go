// Package auth is the client for the managed identity service. It signs
// users in and out and holds the current user for the rest of the app.
package auth

import (
	"strings"
	"sync"
)

// User is the signed-in identity. Views only read it.
type User struct {
	ID          string
	Email       string
	DisplayName string
}

// Name returns the display name, falling back to the local part of the email.
func (u *User) Name() string {
	if u == nil {
		return ""
	}
	if u.DisplayName != "" {
		return u.DisplayName
	}
	if i := strings.Index(u.Email, "@"); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// State holds the current user for the lifetime of the application root.
// It is created once and passed to every view and command that needs it.
type State struct {
	mu    sync.RWMutex
	user  *User
	token string
}

// NewState returns a signed-out State.
func NewState() *State {
	return &State{}
}

// User returns a copy of the current user, or nil when signed out.
func (s *State) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Token returns the access token of the current user.
func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SignedIn reports whether a user is present.
func (s *State) SignedIn() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// Set replaces the current user and token.
func (s *State) Set(u *User, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u == nil {
		s.user, s.token = nil, ""
		return
	}
	cp := *u
	s.user = &cp
	s.token = token
}

// Clear signs the state out.
func (s *State) Clear() {
	s.Set(nil, "")
}
