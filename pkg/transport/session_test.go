package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// recorder collects session events in arrival order.
type recorder struct {
	mu       sync.Mutex
	events   []string
	statuses []Status
	messages []json.RawMessage
	errs     []error
}

func (r *recorder) handlers() Handlers {
	return Handlers{
		OnStatus: func(st Status) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.statuses = append(r.statuses, st)
			r.events = append(r.events, "status:"+string(st))
		},
		OnMessage: func(m json.RawMessage) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.messages = append(r.messages, m)
			r.events = append(r.events, "message")
		},
		OnError: func(err error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.errs = append(r.errs, err)
			r.events = append(r.events, "error")
		},
	}
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) snapshot() (statuses []Status, messages []json.RawMessage, errs []error, events []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.statuses...),
		append([]json.RawMessage(nil), r.messages...),
		append([]error(nil), r.errs...),
		append([]string(nil), r.events...)
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func newServer(t *testing.T, handle func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func waitDone(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not shut down")
	}
}

func TestDial_InvalidScheme(t *testing.T) {
	for _, raw := range []string{"http://example.com/ws", "https://example.com", "example.com", "ftp://x"} {
		_, err := Dial(context.Background(), raw, Handlers{})
		assert.ErrorIs(t, err, ErrInvalidScheme, raw)
	}

	_, err := Dial(context.Background(), "ws://[::1", Handlers{})
	assert.Error(t, err)
}

func TestSession_DeliversFramesInOrder(t *testing.T) {
	srv := newServer(t, func(conn *websocket.Conn) {
		for i := 0; i < 3; i++ {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"n":%d}`, i)))
		}
		_, _, _ = conn.ReadMessage()
	})

	rec := &recorder{}
	s, err := Dial(context.Background(), wsURL(srv), rec.handlers())
	require.NoError(t, err)
	t.Cleanup(s.Leave)

	require.Eventually(t, func() bool {
		_, msgs, _, _ := rec.snapshot()
		return len(msgs) == 3
	}, 5*time.Second, 10*time.Millisecond)

	statuses, msgs, errs, _ := rec.snapshot()
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, statuses)
	for i, m := range msgs {
		assert.JSONEq(t, fmt.Sprintf(`{"n":%d}`, i), string(m))
	}
	assert.Empty(t, errs)
	assert.Equal(t, StatusConnected, s.Status())
	assert.Equal(t, 0, s.Retries())
}

func TestSession_LeaveBeforeOpen(t *testing.T) {
	var served atomic.Int32
	srv := newServer(t, func(conn *websocket.Conn) {
		served.Add(1)
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"hello":true}`))
		time.Sleep(50 * time.Millisecond)
	})

	rec := &recorder{}
	s, err := Dial(context.Background(), wsURL(srv), rec.handlers())
	require.NoError(t, err)
	s.Leave()
	waitDone(t, s)

	// give a late frame a chance to arrive
	time.Sleep(50 * time.Millisecond)

	statuses, msgs, errs, _ := rec.snapshot()
	assert.Equal(t, []Status{StatusConnecting}, statuses)
	assert.Empty(t, msgs)
	assert.Empty(t, errs)
	assert.True(t, s.Left())
}

func TestSession_LeaveIsIdempotentAndReentrant(t *testing.T) {
	srv := newServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"a":1}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"a":2}`))
		_, _, _ = conn.ReadMessage()
	})

	var (
		s        *Session
		received atomic.Int32
		ready    = make(chan struct{})
	)
	h := Handlers{
		OnMessage: func(json.RawMessage) {
			<-ready
			received.Add(1)
			s.Leave()
			s.Leave()
		},
	}

	var err error
	s, err = Dial(context.Background(), wsURL(srv), h)
	require.NoError(t, err)
	close(ready)

	waitDone(t, s)
	s.Leave()

	assert.Equal(t, int32(1), received.Load(), "no handler runs after leave")
}

func TestSession_SendRequiresOpenConnection(t *testing.T) {
	release := make(chan struct{})
	got := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			got <- string(data)
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() {
		select {
		case <-release:
		default:
			close(release)
		}
	})

	rec := &recorder{}
	s, err := Dial(context.Background(), wsURL(srv), rec.handlers())
	require.NoError(t, err)
	t.Cleanup(s.Leave)

	assert.ErrorIs(t, s.Send(map[string]string{"type": "action"}), ErrNotConnected)

	close(release)
	require.Eventually(t, func() bool { return s.Status() == StatusConnected }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Send(map[string]string{"type": "action"}))
	select {
	case frame := <-got:
		assert.JSONEq(t, `{"type":"action"}`, frame)
	case <-time.After(5 * time.Second):
		t.Fatal("frame not received")
	}
	assert.Empty(t, got, "the rejected send must not be replayed")

	s.Leave()
	assert.ErrorIs(t, s.Send(map[string]string{"type": "action"}), ErrNotConnected)
}

func TestSession_KeepaliveAndPong(t *testing.T) {
	pings := make(chan string, 8)
	srv := newServer(t, func(conn *websocket.Conn) {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			pings <- string(data)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(PongFrame))
		}
	})

	var pongs atomic.Int32
	rec := &recorder{}
	s, err := Dial(context.Background(), wsURL(srv), rec.handlers(),
		WithKeepaliveInterval(20*time.Millisecond),
		WithHooks(Hooks{OnFrame: func(k FrameKind) {
			if k == FramePong {
				pongs.Add(1)
			}
		}}),
	)
	require.NoError(t, err)
	t.Cleanup(s.Leave)

	select {
	case p := <-pings:
		assert.Equal(t, PingFrame, p)
	case <-time.After(5 * time.Second):
		t.Fatal("no keepalive ping")
	}
	require.Eventually(t, func() bool { return pongs.Load() > 0 }, 5*time.Second, 10*time.Millisecond)

	_, msgs, errs, _ := rec.snapshot()
	assert.Empty(t, msgs, "pong is never delivered")
	assert.Empty(t, errs, "pong is not a protocol error")
}

func TestSession_MalformedFrame(t *testing.T) {
	srv := newServer(t, func(conn *websocket.Conn) {
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"ok":true}`))
		_, _, _ = conn.ReadMessage()
	})

	rec := &recorder{}
	s, err := Dial(context.Background(), wsURL(srv), rec.handlers())
	require.NoError(t, err)
	t.Cleanup(s.Leave)

	require.Eventually(t, func() bool {
		_, msgs, errs, _ := rec.snapshot()
		return len(msgs) == 1 && len(errs) == 1
	}, 5*time.Second, 10*time.Millisecond)

	_, msgs, errs, events := rec.snapshot()
	assert.ErrorIs(t, errs[0], ErrMalformedFrame)
	assert.JSONEq(t, `{"ok":true}`, string(msgs[0]))
	assert.Equal(t, []string{"status:connecting", "status:connected", "error", "message"}, events)
}

func TestSession_ReconnectsWithBackoff(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) > 1 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		// drop the connection without a close handshake
		_ = conn.UnderlyingConn().Close()
	}))
	t.Cleanup(srv.Close)

	rec := &recorder{}
	var (
		mu     sync.Mutex
		delays []time.Duration
	)
	s, err := Dial(context.Background(), wsURL(srv), rec.handlers(),
		WithBackoff(time.Millisecond, 20*time.Millisecond),
		WithRandom(fixed(0)),
		WithHooks(Hooks{OnReconnect: func(retries int, delay time.Duration) {
			rec.add(fmt.Sprintf("reconnect:%d", retries))
			mu.Lock()
			delays = append(delays, delay)
			mu.Unlock()
		}}),
	)
	require.NoError(t, err)
	t.Cleanup(s.Leave)

	require.Eventually(t, func() bool { return s.Retries() >= 3 }, 5*time.Second, 5*time.Millisecond)
	s.Leave()
	waitDone(t, s)

	statuses, _, _, events := rec.snapshot()
	assert.Equal(t, []Status{StatusConnecting, StatusConnected, StatusConnecting}, statuses)
	require.GreaterOrEqual(t, len(events), 5)
	assert.Equal(t, []string{"status:connecting", "status:connected", "status:connecting", "reconnect:1", "reconnect:2"}, events[:5])

	mu.Lock()
	defer mu.Unlock()
	require.GreaterOrEqual(t, len(delays), 3)
	assert.Equal(t, Backoff(1, time.Millisecond, 20*time.Millisecond, fixed(0)), delays[0])
	assert.Equal(t, Backoff(3, time.Millisecond, 20*time.Millisecond, fixed(0)), delays[2])
	assert.Equal(t, 3375*time.Microsecond, delays[2])
}

func TestSession_RetriesResetAfterOpen(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := requests.Add(1)
		if n <= 2 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_, _, _ = conn.ReadMessage()
	}))
	t.Cleanup(srv.Close)

	rec := &recorder{}
	s, err := Dial(context.Background(), wsURL(srv), rec.handlers(),
		WithBackoff(time.Millisecond, 5*time.Millisecond),
	)
	require.NoError(t, err)
	t.Cleanup(s.Leave)

	require.Eventually(t, func() bool { return s.Status() == StatusConnected }, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, s.Retries())

	statuses, _, _, _ := rec.snapshot()
	assert.Equal(t, []Status{StatusConnecting, StatusConnected}, statuses, "status only changes on real transitions")
}

func TestSession_ContextCancelLeaves(t *testing.T) {
	srv := newServer(t, func(conn *websocket.Conn) {
		_, _, _ = conn.ReadMessage()
	})

	ctx, cancel := context.WithCancel(context.Background())
	s, err := Dial(ctx, wsURL(srv), Handlers{})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.Status() == StatusConnected }, 5*time.Second, 5*time.Millisecond)
	cancel()
	waitDone(t, s)
	assert.True(t, s.Left())
	assert.ErrorIs(t, s.Send("x"), ErrNotConnected)
}
