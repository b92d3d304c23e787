package websocket

import (
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(hub *Hub) *Client {
	return &Client{
		hub:    hub,
		send:   make(chan []byte, 16),
		id:     "test-client",
		logger: slog.Default(),
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub)
	hub.register <- client

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.unregister <- client
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)

	// Channel should be closed after unregister.
	_, ok := <-client.send
	assert.False(t, ok)
}

func TestHubBroadcastProgress(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub)
	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastProgress(ProgressData{
		JobID:      "job-1",
		Stage:      "materialize",
		LineID:     "100",
		LinesSaved: 1,
		LinesTotal: 2,
	})

	select {
	case payload := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, TypeConversionProgress, msg.Type)
		assert.Equal(t, LevelInfo, msg.Level)
		data, ok := msg.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "job-1", data["job_id"])
		assert.Equal(t, float64(2), data["lines_total"])
	case <-time.After(time.Second):
		t.Fatal("expected broadcast message")
	}
}

func TestHubBroadcastComplete(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	client := newTestClient(hub)
	hub.register <- client
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastComplete("job-2", false, "column count mismatch")

	select {
	case payload := <-client.send:
		var msg Message
		require.NoError(t, json.Unmarshal(payload, &msg))
		assert.Equal(t, TypeConversionComplete, msg.Type)
		assert.Equal(t, LevelError, msg.Level)
	case <-time.After(time.Second):
		t.Fatal("expected broadcast message")
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(slog.Default())
	hub.Start()
	defer hub.Stop()

	slow := &Client{hub: hub, send: make(chan []byte), id: "slow", logger: slog.Default()}
	hub.register <- slow
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 1
	}, time.Second, 10*time.Millisecond)

	// Nobody reads slow.send, so the first broadcast evicts the client.
	hub.Broadcast(TypeConversionStatus, LevelInfo, nil)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestHubStartIdempotent(t *testing.T) {
	hub := NewHub(nil)
	hub.Start()
	hub.Start()
	hub.Stop()
}
