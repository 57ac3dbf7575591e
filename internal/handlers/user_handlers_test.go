// internal/handlers/user_handlers_test.go
package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"chit-chat/internal/session"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV {
	return &memKV{data: make(map[string][]byte)}
}

func (m *memKV) GetRaw(key string) ([]byte, error) {
	return m.data[key], nil
}

func (m *memKV) PutRaw(key string, value []byte) error {
	m.data[key] = value
	return nil
}

func (m *memKV) DeleteRaw(key string) error {
	delete(m.data, key)
	return nil
}

type sessionEnvelope struct {
	Session *session.Session `json:"session"`
}

func restoreSession(t *testing.T, srv *Server) (*httptest.ResponseRecorder, sessionEnvelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/user/session", nil)
	rec := httptest.NewRecorder()
	srv.HandleSessionRestore()(rec, req)

	var envelope sessionEnvelope
	if rec.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	}
	return rec, envelope
}

func TestHandleSessionRestore(t *testing.T) {
	srv := &Server{Sessions: session.NewManager(newMemKV())}

	rec, envelope := restoreSession(t, srv)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, envelope.Session, "nothing remembered before any login")

	saved := &session.Session{UserID: uuid.New(), Name: "alice", IsAdmin: true}
	require.NoError(t, srv.Sessions.Save(saved))

	rec, envelope = restoreSession(t, srv)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, envelope.Session)
	assert.Equal(t, saved.UserID, envelope.Session.UserID)
	assert.Equal(t, "alice", envelope.Session.Name)
	assert.True(t, envelope.Session.IsAdmin)

	require.NoError(t, srv.Sessions.Clear())
	rec, envelope = restoreSession(t, srv)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, envelope.Session, "logout forgets the identity")
}

func TestHandleSessionRestoreRejectsNonGet(t *testing.T) {
	srv := &Server{Sessions: session.NewManager(newMemKV())}

	req := httptest.NewRequest(http.MethodPost, "/user/session", nil)
	rec := httptest.NewRecorder()
	srv.HandleSessionRestore()(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
