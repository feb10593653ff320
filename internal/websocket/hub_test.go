package websocket

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id        string
	sessionID string
	messages  [][]byte
	mu        sync.Mutex
	closed    bool
}

func newMockClient(id, sessionID string) *mockClient {
	return &mockClient{
		id:        id,
		sessionID: sessionID,
		messages:  make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) SessionID() string {
	return m.sessionID
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "session-a")
	client2 := newMockClient("client-2", "session-a")
	client3 := newMockClient("client-3", "session-b")

	hub.Register(client1)
	hub.Register(client2)
	hub.Register(client3)

	assert.Equal(t, 2, hub.ClientCount("session-a"))
	assert.Equal(t, 1, hub.ClientCount("session-b"))
	assert.Equal(t, 0, hub.ClientCount("unknown"))
	assert.Equal(t, 3, hub.TotalClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount("session-a"))

	hub.Unregister(client2)
	hub.Unregister(client3)
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_Broadcast_SessionIsolation(t *testing.T) {
	hub := NewHub()

	tabA1 := newMockClient("tab-1", "session-a")
	tabA2 := newMockClient("tab-2", "session-a")
	other := newMockClient("tab-3", "session-b")

	hub.Register(tabA1)
	hub.Register(tabA2)
	hub.Register(other)

	hub.Broadcast("session-a", SnapshotReplaced(map[string]interface{}{"sequence": float64(3)}))

	assert.Len(t, tabA1.GetMessages(), 1)
	assert.Len(t, tabA2.GetMessages(), 1)
	assert.Len(t, other.GetMessages(), 0, "another session must not see this session's snapshot")
}

func TestHub_CloseSession(t *testing.T) {
	hub := NewHub()

	tab1 := newMockClient("tab-1", "session-a")
	tab2 := newMockClient("tab-2", "session-a")
	keep := newMockClient("tab-3", "session-b")
	hub.Register(tab1)
	hub.Register(tab2)
	hub.Register(keep)

	hub.CloseSession("session-a")

	assert.True(t, tab1.IsClosed())
	assert.True(t, tab2.IsClosed())
	assert.False(t, keep.IsClosed())
	assert.Equal(t, 0, hub.ClientCount("session-a"))
	assert.Equal(t, 1, hub.TotalClientCount())

	require.NotPanics(t, func() { hub.CloseSession("session-a") })
}

func TestHub_ConcurrentAccess(t *testing.T) {
	hub := NewHub()

	var wg sync.WaitGroup
	clientCount := 50

	clients := make([]*mockClient, clientCount)
	for i := 0; i < clientCount; i++ {
		clients[i] = newMockClient(fmt.Sprintf("client-%d", i), fmt.Sprintf("session-%d", i%5))
	}

	for i := 0; i < clientCount; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			hub.Register(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, clientCount, hub.TotalClientCount())

	for i := 0; i < clientCount; i++ {
		wg.Add(2)
		go func(idx int) {
			defer wg.Done()
			hub.Broadcast(fmt.Sprintf("session-%d", idx%5), ViewChanged(map[string]interface{}{"search": "food"}))
		}(i)
		go func(idx int) {
			defer wg.Done()
			hub.Unregister(clients[idx])
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestHub_UnregisterNonexistent(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Unregister(newMockClient("client-1", "session-a"))
	})
}

func TestHub_BroadcastToEmptySession(t *testing.T) {
	hub := NewHub()

	require.NotPanics(t, func() {
		hub.Broadcast("nobody", SessionExpired(nil))
	})
}

func TestHub_BroadcastDropsClosedClients(t *testing.T) {
	hub := NewHub()
	live := newMockClient("live", "session-a")
	gone := newMockClient("gone", "session-a")
	hub.Register(live)
	hub.Register(gone)
	require.NoError(t, gone.Close())

	hub.Broadcast("session-a", ViewChanged(map[string]interface{}{"search": ""}))

	assert.Equal(t, 1, hub.ClientCount("session-a"))
	assert.Len(t, live.GetMessages(), 1)

	// The last client leaving removes the session entry
	hub.Unregister(live)
	assert.Equal(t, 0, hub.TotalClientCount())
}
