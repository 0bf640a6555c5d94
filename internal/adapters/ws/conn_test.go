package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/chatcube/internal/core"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// echoServer replies to every frame with the same payload and hands the
// server side of each connection to onConn when it is set.
func echoServer(t *testing.T, onConn func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if onConn != nil {
			onConn(conn)
			return
		}
		defer conn.Close()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(mt, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func next(t *testing.T, events <-chan core.TransportEvent) core.TransportEvent {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for transport event")
		return core.TransportEvent{}
	}
}

func TestConn_OpenSendReceiveClose(t *testing.T) {
	srv := echoServer(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan core.TransportEvent, 8)
	tr := NewDialer(wsURL(srv)).Open(ctx, 7, events)

	ev := next(t, events)
	require.Equal(t, core.EventOpen, ev.Kind)
	assert.Equal(t, uint64(7), ev.Gen)

	require.NoError(t, tr.TrySend(core.Frame(`{"type":"ping","data":{}}`)))

	ev = next(t, events)
	require.Equal(t, core.EventMessage, ev.Kind)
	assert.JSONEq(t, `{"type":"ping","data":{}}`, string(ev.Data))

	tr.Close()
	tr.Close()

	ev = next(t, events)
	assert.Equal(t, core.EventClose, ev.Kind)
	assert.ErrorIs(t, tr.TrySend(core.Frame("x")), core.ErrNotOpen)

	select {
	case ev := <-events:
		t.Fatalf("unexpected event after close: %v", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestConn_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	events := make(chan core.TransportEvent, 8)
	NewDialer(url).Open(context.Background(), 1, events)

	ev := next(t, events)
	require.Equal(t, core.EventError, ev.Kind)
	assert.Error(t, ev.Err)
	assert.Equal(t, core.EventClose, next(t, events).Kind)
}

func TestConn_ServerClose(t *testing.T) {
	srv := echoServer(t, func(conn *websocket.Conn) {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		_ = conn.Close()
	})

	events := make(chan core.TransportEvent, 8)
	NewDialer(wsURL(srv)).Open(context.Background(), 1, events)

	require.Equal(t, core.EventOpen, next(t, events).Kind)
	assert.Equal(t, core.EventClose, next(t, events).Kind)
}

func TestConn_TrySendBeforeOpen(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Conn{send: make(chan core.Frame, 1), cancel: cancel, parent: ctx}
	assert.ErrorIs(t, c.TrySend(core.Frame("x")), core.ErrNotOpen)
}

func TestConn_Backpressure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := &Conn{send: make(chan core.Frame, 1), cancel: cancel, parent: ctx, open: true}
	require.NoError(t, c.TrySend(core.Frame("a")))
	assert.ErrorIs(t, c.TrySend(core.Frame("b")), core.ErrBackpressure)
}
