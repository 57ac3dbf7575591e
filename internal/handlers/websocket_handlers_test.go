// internal/handlers/websocket_handlers_test.go
package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"chit-chat/internal/models"
	"chit-chat/internal/websocket"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHubClient(hub *websocket.Hub, userID uuid.UUID) *websocket.Client {
	client := &websocket.Client{
		Hub:    hub,
		UserID: userID,
		Send:   make(chan []byte, 4),
	}
	hub.Register <- client
	return client
}

func waitForPayload(t *testing.T, c *websocket.Client) []byte {
	t.Helper()
	select {
	case payload := <-c.Send:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func assertNothingDelivered(t *testing.T, c *websocket.Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected payload delivered: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestNotifyNewMessagePrivateStaysBetweenAuthorAndTarget(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()

	alice := uuid.New()
	bob := uuid.New()
	carol := uuid.New()
	aliceTab := newHubClient(hub, alice)
	bobTab := newHubClient(hub, bob)
	carolTab := newHubClient(hub, carol)

	srv := &Server{Hub: hub}
	srv.notifyNewMessage(&models.Message{
		ID:           uuid.New(),
		UserID:       alice,
		UserName:     "alice",
		Content:      "between us",
		IsPrivate:    true,
		TargetUserID: &bob,
	})

	var notice messageNotice
	require.NoError(t, json.Unmarshal(waitForPayload(t, bobTab), &notice))
	assert.Equal(t, "message", notice.Type)
	assert.Equal(t, "between us", notice.Message.Content)

	require.NoError(t, json.Unmarshal(waitForPayload(t, aliceTab), &notice))
	assert.Equal(t, "between us", notice.Message.Content)

	assertNothingDelivered(t, carolTab)
}

func TestNotifyNewMessagePublicReachesEveryone(t *testing.T) {
	hub := websocket.NewHub()
	go hub.Run()

	aliceTab := newHubClient(hub, uuid.New())
	bobTab := newHubClient(hub, uuid.New())

	srv := &Server{Hub: hub}
	srv.notifyNewMessage(&models.Message{
		ID:       uuid.New(),
		UserID:   aliceTab.UserID,
		UserName: "alice",
		Content:  "hello everyone",
	})

	var notice messageNotice
	require.NoError(t, json.Unmarshal(waitForPayload(t, aliceTab), &notice))
	assert.Equal(t, "hello everyone", notice.Message.Content)
	require.NoError(t, json.Unmarshal(waitForPayload(t, bobTab), &notice))
	assert.Equal(t, "hello everyone", notice.Message.Content)
}

func TestReactionCounts(t *testing.T) {
	alice := uuid.New()
	bob := uuid.New()
	first := &models.Message{ID: uuid.New(), UserID: alice}
	first.Reactions = []*models.Reaction{
		{ID: uuid.New(), MessageID: first.ID, UserID: alice, Emoji: "👍"},
		{ID: uuid.New(), MessageID: first.ID, UserID: bob, Emoji: "👍"},
		{ID: uuid.New(), MessageID: first.ID, UserID: bob, Emoji: "🎉"},
	}
	second := &models.Message{ID: uuid.New(), UserID: bob}

	counts := reactionCounts([]*models.Message{first, second})

	require.Len(t, counts, 2)
	assert.Equal(t, map[string]int{"👍": 2, "🎉": 1}, counts[first.ID])
	assert.Empty(t, counts[second.ID])
}
