package game

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// frame is the wire format in both directions.
//
//	in:  {"type":"key","action":1,"key":344}
//	in:  {"type":"screen","name":"chat"} / {"type":"screen","name":null}
//	out: {"type":"echo","message":"..."}
//	out: {"type":"execute","command":"..."}
type frame struct {
	Type    string  `json:"type"`
	Action  int     `json:"action,omitempty"`
	Key     int     `json:"key,omitempty"`
	Name    *string `json:"name,omitempty"`
	Message string  `json:"message,omitempty"`
	Command string  `json:"command,omitempty"`
}

const (
	frameEcho    = "echo"
	frameExecute = "execute"
)

// WebSocketOptions configures DialWebSocket.
type WebSocketOptions struct {
	// Buffer is the number of events held before the oldest is dropped.
	Buffer int
	// PingInterval keeps idle connections alive. Zero disables pings.
	PingInterval time.Duration
	Logger       *slog.Logger
	Dialer       *websocket.Dialer
}

// WebSocket is a Source backed by a websocket connection to a game-side
// bridge mod. A read pump queues inbound events for Poll and a write pump
// serialises outbound chat traffic.
type WebSocket struct {
	conn   *websocket.Conn
	logger *slog.Logger

	events chan Event
	send   chan frame
	quit   chan struct{}
	done   chan struct{}

	closeOnce sync.Once
	dropped   atomic.Uint64

	mu     sync.RWMutex
	screen string
	open   bool
}

// DialWebSocket connects to url.
func DialWebSocket(ctx context.Context, url string, opts WebSocketOptions) (*WebSocket, error) {
	if opts.Buffer <= 0 {
		opts.Buffer = 256
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	dialer := opts.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("game: dial %s: %w", url, err)
	}

	w := &WebSocket{
		conn:   conn,
		logger: opts.Logger.With("source", "websocket"),
		events: make(chan Event, opts.Buffer),
		send:   make(chan frame, 64),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.readPump()
	go w.writePump(opts.PingInterval)
	return w, nil
}

func (w *WebSocket) readPump() {
	defer close(w.done)
	for {
		var f frame
		if err := w.conn.ReadJSON(&f); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				// ReadJSON consumed the bad frame, the connection is still usable.
				w.logger.Warn("malformed frame", "error", err)
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				w.logger.Warn("connection lost", "error", err)
			}
			return
		}
		switch f.Type {
		case TypeKey:
			w.enqueue(Event{Type: TypeKey, Action: f.Action, Key: f.Key})
		case TypeScreen:
			w.mu.Lock()
			if f.Name != nil && *f.Name != "" {
				w.screen, w.open = *f.Name, true
			} else {
				w.screen, w.open = "", false
			}
			w.mu.Unlock()
		default:
			w.logger.Debug("ignoring frame", "type", f.Type)
		}
	}
}

// enqueue drops the oldest queued event when the buffer is full. The read
// pump is the only producer.
func (w *WebSocket) enqueue(ev Event) {
	for {
		select {
		case w.events <- ev:
			return
		default:
		}
		select {
		case <-w.events:
			w.dropped.Add(1)
		default:
		}
	}
}

func (w *WebSocket) writePump(pingInterval time.Duration) {
	var tick <-chan time.Time
	if pingInterval > 0 {
		t := time.NewTicker(pingInterval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case f := <-w.send:
			if err := w.conn.WriteJSON(f); err != nil {
				w.logger.Warn("write failed", "type", f.Type, "error", err)
				return
			}
		case <-tick:
			deadline := time.Now().Add(5 * time.Second)
			if err := w.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-w.quit:
			return
		case <-w.done:
			return
		}
	}
}

// Poll implements Source. Events already received are still delivered after
// the connection drops; ErrClosed follows once they are drained.
func (w *WebSocket) Poll() (Event, bool, error) {
	select {
	case ev := <-w.events:
		return ev, true, nil
	default:
	}
	select {
	case <-w.done:
		return Event{}, false, ErrClosed
	default:
		return Event{}, false, nil
	}
}

// Screen implements Source.
func (w *WebSocket) Screen() (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.screen, w.open
}

// Echo implements Source.
func (w *WebSocket) Echo(msg string) {
	w.post(frame{Type: frameEcho, Message: msg})
}

// Execute implements Source.
func (w *WebSocket) Execute(cmd string) {
	w.post(frame{Type: frameExecute, Command: cmd})
}

func (w *WebSocket) post(f frame) {
	select {
	case <-w.quit:
		return
	case <-w.done:
		return
	default:
	}
	select {
	case w.send <- f:
	default:
		w.logger.Warn("outbound queue full, dropping frame", "type", f.Type)
	}
}

// Dropped returns how many events were discarded because the queue was full.
func (w *WebSocket) Dropped() uint64 {
	return w.dropped.Load()
}

// Done is closed once the connection has stopped reading.
func (w *WebSocket) Done() <-chan struct{} {
	return w.done
}

// Close implements Source. It sends a close frame, closes the connection and
// waits for the read pump to exit.
func (w *WebSocket) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.quit)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = w.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		err = w.conn.Close()
		<-w.done
	})
	return err
}

var _ Source = (*WebSocket)(nil)
