// Package auth holds the session record, its Redis-backed store and the
// signed token that names a session in the client's cookie.
package auth

import (
	"time"

	"github.com/dmitrijs2005/todolist/internal/common"
)

// ConfirmationWindow is how long a password confirmation unlocks sensitive
// settings.
const ConfirmationWindow = 3 * time.Hour

const sessionIDBytes = 32

// Flash categories.
const (
	FlashError = "error"
	FlashInfo  = "info"
)

// Identity names the signed-in user and the list they own.
type Identity struct {
	UserID string
	ListID string
}

// Flash is a one-shot message shown on the next rendered page. Message is a
// field name from common, not prose.
type Flash struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// Session is the server-side state behind a session cookie.
type Session struct {
	ID          string     `json:"-"`
	UserID      string     `json:"user_id,omitempty"`
	ListID      string     `json:"list_id,omitempty"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	Flashes     []Flash    `json:"flashes,omitempty"`
}

// NewSession returns an anonymous session with a fresh random id.
func NewSession() (*Session, error) {
	id, err := common.MakeRandHexString(sessionIDBytes)
	if err != nil {
		return nil, err
	}
	return &Session{ID: id}, nil
}

func (s *Session) Authenticated() bool {
	return s.UserID != ""
}

func (s *Session) Identity() Identity {
	return Identity{UserID: s.UserID, ListID: s.ListID}
}

// SignIn binds the session to id. Any earlier confirmation is dropped.
func (s *Session) SignIn(id Identity) {
	s.UserID = id.UserID
	s.ListID = id.ListID
	s.ConfirmedAt = nil
}

// Clear drops the user binding and confirmation but keeps pending flashes.
func (s *Session) Clear() {
	s.UserID = ""
	s.ListID = ""
	s.ConfirmedAt = nil
}

// Confirm records a successful password confirmation at now.
func (s *Session) Confirm(now time.Time) {
	stamp := now.UTC()
	s.ConfirmedAt = &stamp
}

// ConfirmedWithin reports whether the session is authenticated and was
// confirmed no longer than window before now.
func (s *Session) ConfirmedWithin(now time.Time, window time.Duration) bool {
	if !s.Authenticated() || s.ConfirmedAt == nil {
		return false
	}
	return now.Sub(*s.ConfirmedAt) <= window
}

func (s *Session) AddFlash(category, message string) {
	s.Flashes = append(s.Flashes, Flash{Category: category, Message: message})
}

// PopFlashes returns the pending flashes and forgets them.
func (s *Session) PopFlashes() []Flash {
	f := s.Flashes
	s.Flashes = nil
	return f
}
