package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/upf-gti/admire-sub000/internal/protocol"
	"github.com/upf-gti/admire-sub000/internal/transport"
)

// testServer is a WebSocket endpoint that echoes back every frame it receives
// and can inject frames of its own.
type testServer struct {
	*httptest.Server

	mu   sync.Mutex
	conn *websocket.Conn
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s := &testServer{}
	upgrader := websocket.Upgrader{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()
		for {
			mt, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			_ = conn.WriteMessage(mt, data)
		}
	}))
	t.Cleanup(s.Server.Close)
	return s
}

func (s *testServer) url() string {
	return "ws" + strings.TrimPrefix(s.Server.URL, "http")
}

func (s *testServer) inject(t *testing.T, data string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(data)); err != nil {
				t.Fatalf("inject failed: %v", err)
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("server connection never established")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func dial(t *testing.T, url string) *transport.Channel {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ch, err := transport.Dial(ctx, url)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	return ch
}

// TestSendAndReceive verifies a round trip: a sent message echoed by the
// server is decoded and delivered to OnMessage.
func TestSendAndReceive(t *testing.T) {
	srv := newTestServer(t)
	ch := dial(t, srv.url())
	defer ch.Close()

	received := make(chan *protocol.Message, 1)
	ch.OnMessage(func(m *protocol.Message) { received <- m })
	ch.Listen()

	ch.Send(&protocol.Message{ID: protocol.MsgPing})

	select {
	case m := <-received:
		if m.ID != protocol.MsgPing {
			t.Errorf("got id %q, want %q", m.ID, protocol.MsgPing)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no message received")
	}
}

// TestDeliveryOrder verifies inbound messages reach OnMessage in arrival
// order.
func TestDeliveryOrder(t *testing.T) {
	srv := newTestServer(t)
	ch := dial(t, srv.url())
	defer ch.Close()

	var mu sync.Mutex
	var ids []string
	done := make(chan struct{})
	ch.OnMessage(func(m *protocol.Message) {
		mu.Lock()
		ids = append(ids, m.ID)
		n := len(ids)
		mu.Unlock()
		if n == 3 {
			close(done)
		}
	})
	ch.Listen()

	ch.Send(&protocol.Message{ID: "a"})
	ch.Send(&protocol.Message{ID: "b"})
	ch.Send(&protocol.Message{ID: "c"})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for messages")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"a", "b", "c"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", ids, want)
		}
	}
}

// TestUndecodableFrameSkipped verifies a malformed frame is skipped without
// terminating the read loop.
func TestUndecodableFrameSkipped(t *testing.T) {
	srv := newTestServer(t)
	ch := dial(t, srv.url())
	defer ch.Close()

	received := make(chan *protocol.Message, 1)
	ch.OnMessage(func(m *protocol.Message) { received <- m })
	ch.Listen()

	srv.inject(t, "this is not json")
	srv.inject(t, `{"id":"pong"}`)

	select {
	case m := <-received:
		if m.ID != protocol.MsgPong {
			t.Errorf("got id %q, want pong", m.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("read loop did not survive the malformed frame")
	}
}

// TestCloseFiresOnCloseOnce verifies OnClose runs exactly once even when the
// local close races the server dropping the connection.
func TestCloseFiresOnCloseOnce(t *testing.T) {
	srv := newTestServer(t)
	ch := dial(t, srv.url())

	var mu sync.Mutex
	closes := 0
	ch.OnClose(func(error) {
		mu.Lock()
		closes++
		mu.Unlock()
	})
	ch.Listen()

	_ = ch.Close()
	_ = ch.Close()
	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if closes != 1 {
		t.Errorf("OnClose ran %d times, want 1", closes)
	}
	if ch.Open() {
		t.Error("channel still reports open after Close")
	}
}

// TestSendAfterCloseIsDropped verifies sending on a closed channel is a
// silent no-op rather than an error or panic.
func TestSendAfterCloseIsDropped(t *testing.T) {
	srv := newTestServer(t)
	ch := dial(t, srv.url())
	_ = ch.Close()

	ch.Send(&protocol.Message{ID: protocol.MsgPing})
}

// TestDialFailure verifies a refused connection surfaces as an error.
func TestDialFailure(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := transport.Dial(ctx, "ws://127.0.0.1:1/nothing"); err == nil {
		t.Fatal("expected dial error, got nil")
	}
}
