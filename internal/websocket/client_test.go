package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serveClients upgrades every request into a Client for session-a and
// hands it to the test without starting its pumps
func serveClients(t *testing.T, hub *Hub) (wsURL string, clients <-chan *Client) {
	t.Helper()
	out := make(chan *Client, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		out <- NewClient(conn, "session-a", hub)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), out
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestClient_DeliversEventsInOrder(t *testing.T) {
	hub := NewHub()
	url, clients := serveClients(t, hub)
	browser := dial(t, url)

	client := <-clients
	hub.Register(client)
	go client.WritePump()
	go client.ReadPump()

	hub.Broadcast("session-a", SnapshotReplaced(map[string]int{"sequence": 1}))
	hub.Broadcast("session-a", ViewChanged(map[string]string{"kind": "account_detail"}))

	browser.SetReadDeadline(time.Now().Add(2 * time.Second))
	for _, want := range []string{"snapshot.replaced", "view.changed"} {
		var ev Event
		require.NoError(t, browser.ReadJSON(&ev))
		assert.Equal(t, want, ev.Type)
	}
}

func TestClient_CloseSessionSendsCloseFrame(t *testing.T) {
	hub := NewHub()
	url, clients := serveClients(t, hub)
	browser := dial(t, url)

	client := <-clients
	hub.Register(client)
	go client.WritePump()

	hub.CloseSession("session-a")

	browser.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := browser.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
	assert.True(t, client.IsClosed())
	assert.Equal(t, 0, hub.TotalClientCount())
}

func TestClient_SlowClientIsDisconnected(t *testing.T) {
	hub := NewHub()
	url, clients := serveClients(t, hub)
	dial(t, url)

	// No WritePump, so nothing drains the buffer
	client := <-clients
	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, client.Send([]byte("{}")))
	}

	assert.ErrorIs(t, client.Send([]byte("{}")), ErrClientSlow)
	assert.True(t, client.IsClosed())
	assert.ErrorIs(t, client.Send([]byte("{}")), ErrClientClosed)
	assert.NoError(t, client.Close())
}
