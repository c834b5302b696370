package game

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bridgeServer is a stand-in for the game-side mod: it hands each accepted
// connection to the test and echoes received frames on a channel.
type bridgeServer struct {
	srv      *httptest.Server
	conns    chan *websocket.Conn
	received chan frame
}

func newBridgeServer(t *testing.T) *bridgeServer {
	t.Helper()
	b := &bridgeServer{
		conns:    make(chan *websocket.Conn, 1),
		received: make(chan frame, 16),
	}
	upgrader := websocket.Upgrader{}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.conns <- conn
		for {
			var f frame
			if err := conn.ReadJSON(&f); err != nil {
				return
			}
			b.received <- f
		}
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *bridgeServer) url() string {
	return "ws" + strings.TrimPrefix(b.srv.URL, "http")
}

func dial(t *testing.T, b *bridgeServer, opts WebSocketOptions) (*WebSocket, *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	ws, err := DialWebSocket(ctx, b.url(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	select {
	case conn := <-b.conns:
		return ws, conn
	case <-time.After(5 * time.Second):
		t.Fatal("server never accepted the connection")
		return nil, nil
	}
}

func pollUntil(t *testing.T, ws *WebSocket) Event {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		ev, ok, err := ws.Poll()
		require.NoError(t, err)
		if ok {
			return ev
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no event arrived")
	return Event{}
}

func TestWebSocket_ReceivesKeyEvents(t *testing.T) {
	b := newBridgeServer(t)
	ws, conn := dial(t, b, WebSocketOptions{})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"key","action":1,"key":344}`)))

	ev := pollUntil(t, ws)
	assert.Equal(t, Event{Type: TypeKey, Action: ActionPress, Key: 344}, ev)
}

func TestWebSocket_ScreenUpdates(t *testing.T) {
	b := newBridgeServer(t)
	ws, conn := dial(t, b, WebSocketOptions{})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"screen","name":"chat"}`)))
	require.Eventually(t, func() bool {
		name, open := ws.Screen()
		return open && name == "chat"
	}, 5*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"screen","name":null}`)))
	require.Eventually(t, func() bool {
		_, open := ws.Screen()
		return !open
	}, 5*time.Second, 5*time.Millisecond)
}

func TestWebSocket_SkipsMalformedFrames(t *testing.T) {
	b := newBridgeServer(t)
	ws, conn := dial(t, b, WebSocketOptions{})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"key","key":"G"}`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"key","action":1,"key":71}`)))

	ev := pollUntil(t, ws)
	assert.Equal(t, 71, ev.Key)
}

func TestWebSocket_SendsChat(t *testing.T) {
	b := newBridgeServer(t)
	ws, _ := dial(t, b, WebSocketOptions{})

	ws.Echo("Busy.")
	ws.Execute("/home")

	for _, want := range []frame{
		{Type: frameEcho, Message: "Busy."},
		{Type: frameExecute, Command: "/home"},
	} {
		select {
		case got := <-b.received:
			assert.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("frame %+v never arrived", want)
		}
	}
}

func TestWebSocket_DropsOldestWhenFull(t *testing.T) {
	b := newBridgeServer(t)
	ws, conn := dial(t, b, WebSocketOptions{Buffer: 2})

	for _, key := range []string{"65", "66", "67"} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"key","action":1,"key":`+key+`}`)))
	}
	require.Eventually(t, func() bool { return ws.Dropped() == 1 }, 5*time.Second, 5*time.Millisecond)

	first, ok, err := ws.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	second, ok, err := ws.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []int{66, 67}, []int{first.Key, second.Key})
}

func TestWebSocket_ClosedAfterDisconnect(t *testing.T) {
	b := newBridgeServer(t)
	ws, conn := dial(t, b, WebSocketOptions{})

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"key","action":1,"key":71}`)))
	// wait for delivery before hanging up
	require.Eventually(t, func() bool { return len(ws.events) == 1 }, 5*time.Second, 5*time.Millisecond)
	require.NoError(t, conn.Close())

	select {
	case <-ws.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("read pump did not stop")
	}

	ev, ok, err := ws.Poll()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 71, ev.Key)

	_, ok, err = ws.Poll()
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrClosed)

	// chat after disconnect is dropped without blocking
	ws.Echo("late")
}

func TestWebSocket_CloseIsIdempotent(t *testing.T) {
	b := newBridgeServer(t)
	ws, _ := dial(t, b, WebSocketOptions{PingInterval: 10 * time.Millisecond})

	assert.NoError(t, ws.Close())
	assert.NoError(t, ws.Close())
	_, _, err := ws.Poll()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDialWebSocket_Failure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := DialWebSocket(ctx, "ws://127.0.0.1:1/none", WebSocketOptions{})
	assert.Error(t, err)
}
