// Package session replaces the original app's ambient current-user state
// with an explicit object: handlers receive the Session through the request
// context, and the Manager gives it a load/save/clear lifecycle persisted
// under a fixed key so the identity survives a restart.
package session

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
)

// currentUserKey is the fixed key the serialized session lives under.
const currentUserKey = "currentUser"

// Session identifies the authenticated user for one request or one
// websocket connection.
type Session struct {
	UserID  uuid.UUID `json:"userId"`
	Name    string    `json:"name"`
	IsAdmin bool      `json:"isAdmin"`
}

// KV is the slice of the local store the Manager persists through.
type KV interface {
	GetRaw(key string) ([]byte, error)
	PutRaw(key string, value []byte) error
	DeleteRaw(key string) error
}

// Manager owns the persisted current-user record.
type Manager struct {
	kv KV
}

func NewManager(kv KV) *Manager {
	return &Manager{kv: kv}
}

// Save persists the session under the fixed key.
func (m *Manager) Save(s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return m.kv.PutRaw(currentUserKey, raw)
}

// Load returns the persisted session, or nil when none is stored.
func (m *Manager) Load() (*Session, error) {
	raw, err := m.kv.GetRaw(currentUserKey)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Clear removes the persisted session; called on logout.
func (m *Manager) Clear() error {
	return m.kv.DeleteRaw(currentUserKey)
}

// Context plumbing. A custom key type avoids collisions.
type contextKey string

const sessionKey contextKey = "session"

// WithSession stores the session in the request context.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext retrieves the session placed by the auth middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok
}
