package session

import (
	"context"
	"testing"

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

func TestManagerLifecycle(t *testing.T) {
	mgr := NewManager(newMemKV())

	// Nothing stored yet.
	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)

	sess := &Session{
		UserID:  uuid.New(),
		Name:    "alice",
		IsAdmin: true,
	}
	require.NoError(t, mgr.Save(sess))

	loaded, err = mgr.Load()
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, sess.UserID, loaded.UserID)
	assert.Equal(t, "alice", loaded.Name)
	assert.True(t, loaded.IsAdmin)

	// A second login overwrites the first.
	require.NoError(t, mgr.Save(&Session{UserID: uuid.New(), Name: "bob"}))
	loaded, err = mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "bob", loaded.Name)

	require.NoError(t, mgr.Clear())
	loaded, err = mgr.Load()
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestContextRoundTrip(t *testing.T) {
	sess := &Session{UserID: uuid.New(), Name: "alice"}

	ctx := WithSession(context.Background(), sess)
	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, sess, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
}
