package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishKeepsSessionOrder(t *testing.T) {
	hub := NewHub()
	tab := newMockClient("tab-1", "session-a")
	hub.Register(tab)

	var publisher EventPublisher = hub
	for seq := 1; seq <= 5; seq++ {
		publisher.Publish("session-a", SnapshotReplaced(map[string]int{"sequence": seq}))
	}

	msgs := tab.GetMessages()
	require.Len(t, msgs, 5)
	for i, raw := range msgs {
		var ev struct {
			Type    string         `json:"type"`
			Payload map[string]int `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(raw, &ev))
		assert.Equal(t, "snapshot.replaced", ev.Type)
		assert.Equal(t, i+1, ev.Payload["sequence"])
	}
}

func TestHub_PublishToUnknownSession(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() { hub.Publish("nobody", ViewChanged(nil)) })
}

func TestNoOpPublisher(t *testing.T) {
	var publisher EventPublisher = &NoOpPublisher{}
	assert.NotPanics(t, func() { publisher.Publish("session-a", SessionExpired(nil)) })
}
