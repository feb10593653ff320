package websocket

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]interface{}{"sequence": float64(7)}

	before := time.Now()
	evt := NewEvent(EventTypeReplaced, EntityTypeSnapshot, payload)
	after := time.Now()

	assert.Equal(t, "snapshot.replaced", evt.Type)
	assert.Equal(t, EntityTypeSnapshot, evt.Entity)
	assert.Equal(t, payload, evt.Payload)
	assert.True(t, !evt.Timestamp.Before(before) && !evt.Timestamp.After(after))
}

func TestEvent_ToJSON(t *testing.T) {
	evt := ViewChanged(map[string]interface{}{"view": "account_detail", "accountId": float64(3)})

	data, err := evt.ToJSON()
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, "view.changed", decoded["type"])
	assert.Equal(t, "view", decoded["entity"])
	payload, ok := decoded["payload"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "account_detail", payload["view"])
	assert.NotNil(t, decoded["timestamp"])
}

func TestEvent_Helpers(t *testing.T) {
	tests := []struct {
		name     string
		evt      Event
		expected string
		entity   EntityType
	}{
		{"SnapshotReplaced", SnapshotReplaced(nil), "snapshot.replaced", EntityTypeSnapshot},
		{"ViewChanged", ViewChanged(nil), "view.changed", EntityTypeView},
		{"SessionExpired", SessionExpired(nil), "session.expired", EntityTypeSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.evt.Type)
			assert.Equal(t, tt.entity, tt.evt.Entity)
		})
	}
}
