// internal/websocket/hub_test.go
package websocket

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(userID uuid.UUID) *Client {
	return &Client{
		UserID: userID,
		Send:   make(chan []byte, 4),
	}
}

func receivePayload(t *testing.T, c *Client) []byte {
	t.Helper()
	select {
	case payload := <-c.Send:
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for payload")
		return nil
	}
}

func assertNoPayload(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected payload delivered: %s", payload)
	case <-time.After(100 * time.Millisecond):
	}
}

func registerAndWait(t *testing.T, hub *Hub, c *Client) {
	t.Helper()
	hub.Register <- c
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return hub.Clients[c.UserID][c]
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubDirectFrameReachesOnlyTargetUser(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := uuid.New()
	bob := uuid.New()
	aliceTab1 := newTestClient(alice)
	aliceTab2 := newTestClient(alice)
	bobTab := newTestClient(bob)
	registerAndWait(t, hub, aliceTab1)
	registerAndWait(t, hub, aliceTab2)
	registerAndWait(t, hub, bobTab)

	hub.SendDirectFrame(alice, []byte(`{"type":"message"}`))

	assert.Equal(t, []byte(`{"type":"message"}`), receivePayload(t, aliceTab1))
	assert.Equal(t, []byte(`{"type":"message"}`), receivePayload(t, aliceTab2))
	assertNoPayload(t, bobTab)
}

func TestHubBroadcastFrameReachesEveryClient(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	aliceTab := newTestClient(uuid.New())
	bobTab := newTestClient(uuid.New())
	registerAndWait(t, hub, aliceTab)
	registerAndWait(t, hub, bobTab)

	hub.BroadcastFrame([]byte("hello"))

	assert.Equal(t, []byte("hello"), receivePayload(t, aliceTab))
	assert.Equal(t, []byte("hello"), receivePayload(t, bobTab))
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	alice := uuid.New()
	aliceTab := newTestClient(alice)
	registerAndWait(t, hub, aliceTab)

	hub.Unregister <- aliceTab
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.Clients[alice]
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	hub.SendDirectFrame(alice, []byte("late"))
	assertNoPayload(t, aliceTab)
}

func TestHubDirectFrameForUnknownUserIsDropped(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	bystander := newTestClient(uuid.New())
	registerAndWait(t, hub, bystander)

	hub.SendDirectFrame(uuid.New(), []byte("nobody home"))
	assertNoPayload(t, bystander)
}
