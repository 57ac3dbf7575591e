package store

import (
	"context"
	"testing"
	"time"

	"chit-chat/internal/models"
	"chit-chat/internal/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		store.Close(context.Background())
	})
	return store
}

func newTestMessage(author uuid.UUID, content string) *models.Message {
	return &models.Message{
		ID:        uuid.New(),
		UserID:    author,
		UserName:  "author",
		Content:   content,
		CreatedAt: time.Now(),
	}
}

func TestLocalStoreSaveAndFetch(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	author := uuid.New()
	msg := newTestMessage(author, "hello")
	require.NoError(t, store.SaveMessage(ctx, msg))

	messages, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ID, messages[0].ID)
	assert.Equal(t, "hello", messages[0].Content)
	assert.NotNil(t, messages[0].Reactions)
	assert.NotNil(t, messages[0].SeenBy)
}

func TestLocalStoreFetchAllEmpty(t *testing.T) {
	store := newTestLocalStore(t)

	messages, err := store.FetchAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)
}

func TestLocalStoreSaveMessageValidation(t *testing.T) {
	store := newTestLocalStore(t)

	err := store.SaveMessage(context.Background(), &models.Message{
		ID:        uuid.New(),
		UserID:    uuid.New(),
		Content:   "private without target",
		IsPrivate: true,
	})
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestLocalStoreToggleReactionInvolution(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	msg := newTestMessage(uuid.New(), "react to me")
	require.NoError(t, store.SaveMessage(ctx, msg))

	reactor := uuid.New()

	added, err := store.ToggleReaction(ctx, msg.ID, reactor, "bob", "👍")
	require.NoError(t, err)
	assert.True(t, added)

	messages, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, messages[0].Reactions, 1)
	assert.Equal(t, "👍", messages[0].Reactions[0].Emoji)

	// Toggling the same emoji again removes it.
	added, err = store.ToggleReaction(ctx, msg.ID, reactor, "bob", "👍")
	require.NoError(t, err)
	assert.False(t, added)

	messages, err = store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages[0].Reactions)
}

func TestLocalStoreToggleReactionDistinctEmojis(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	msg := newTestMessage(uuid.New(), "hello")
	require.NoError(t, store.SaveMessage(ctx, msg))

	reactor := uuid.New()
	for _, emoji := range []string{"👍", "❤️"} {
		added, err := store.ToggleReaction(ctx, msg.ID, reactor, "bob", emoji)
		require.NoError(t, err)
		assert.True(t, added)
	}

	messages, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, messages[0].Reactions, 2)
}

func TestLocalStoreToggleReactionOnMissingMessage(t *testing.T) {
	store := newTestLocalStore(t)

	added, err := store.ToggleReaction(context.Background(), uuid.New(), uuid.New(), "bob", "👍")
	require.NoError(t, err)
	assert.False(t, added)
}

func TestLocalStoreRecordSeen(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	author := uuid.New()
	viewer := uuid.New()
	msg := newTestMessage(author, "look at me")
	require.NoError(t, store.SaveMessage(ctx, msg))

	require.NoError(t, store.RecordSeen(ctx, msg.ID, viewer, "viewer"))
	// Replays are absorbed.
	require.NoError(t, store.RecordSeen(ctx, msg.ID, viewer, "viewer"))
	// The author never gets a receipt on their own message.
	require.NoError(t, store.RecordSeen(ctx, msg.ID, author, "author"))

	messages, err := store.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, messages[0].SeenBy, 1)
	assert.Equal(t, viewer, messages[0].SeenBy[0].UserID)
}

func TestLocalStoreDeleteMessageRemovesAnnotations(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	msg := newTestMessage(uuid.New(), "doomed")
	require.NoError(t, store.SaveMessage(ctx, msg))

	_, err := store.ToggleReaction(ctx, msg.ID, uuid.New(), "bob", "😂")
	require.NoError(t, err)
	require.NoError(t, store.RecordSeen(ctx, msg.ID, uuid.New(), "carol"))

	require.NoError(t, store.DeleteMessage(ctx, msg.ID))
	// Deleting again is fine.
	require.NoError(t, store.DeleteMessage(ctx, msg.ID))

	messages, err := store.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestLocalStoreUserLifecycle(t *testing.T) {
	store := newTestLocalStore(t)
	ctx := context.Background()

	user := &models.User{
		ID:             uuid.New(),
		Name:           "alice",
		Email:          "alice@example.com",
		HashedPassword: "not-a-real-hash",
		CreatedAt:      time.Now(),
	}
	require.NoError(t, store.SaveUser(ctx, user))

	// Duplicate email is rejected.
	err := store.SaveUser(ctx, &models.User{
		ID:    uuid.New(),
		Name:  "alice again",
		Email: "alice@example.com",
	})
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))

	byID, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Name)

	byEmail, err := store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	require.Error(t, err)
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))

	before := byID.LastSeen
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.UpdateLastSeen(ctx, user.ID))

	after, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, after.LastSeen.After(before))
}

func TestLocalStorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewLocalStore(dir)
	require.NoError(t, err)

	msg := newTestMessage(uuid.New(), "durable")
	require.NoError(t, store.SaveMessage(ctx, msg))
	require.NoError(t, store.Close(ctx))

	reopened, err := NewLocalStore(dir)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	messages, err := reopened.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "durable", messages[0].Content)
}
