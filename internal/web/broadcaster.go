package web

import (
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/cjeanneret/ballplate/internal/telemetry"
)

const subscriberBuffer = 64

// hub fans payloads out to subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the payload.
type hub struct {
	mu      sync.RWMutex
	clients map[chan []byte]struct{}
}

func newHub() hub {
	return hub{clients: make(map[chan []byte]struct{})}
}

// Subscribe returns a channel of payloads and a cleanup function that must
// be called when the client goes away. The cleanup closes the channel.
func (h *hub) Subscribe() (<-chan []byte, func()) {
	ch := make(chan []byte, subscriberBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

func (h *hub) publish(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.clients {
		select {
		case ch <- payload:
		default:
			// channel full, skip
		}
	}
}

// Subscribers returns the number of connected clients.
func (h *hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// StatusEvent represents a single status message for SSE.
type StatusEvent struct {
	Time  string `json:"t"`
	Level string `json:"l,omitempty"`
	Msg   string `json:"msg"`
}

// StatusBroadcaster distributes log lines to SSE clients.
type StatusBroadcaster struct {
	hub
}

func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{hub: newHub()}
}

// Broadcast sends {"t":"...","l":"info","msg":"..."} to all clients.
func (b *StatusBroadcaster) Broadcast(level, msg string) {
	data, err := json.Marshal(StatusEvent{
		Time:  time.Now().Format(time.RFC3339),
		Level: level,
		Msg:   msg,
	})
	if err != nil {
		return
	}
	b.publish(data)
}

// BroadcastMsg is a convenience for level "info".
func (b *StatusBroadcaster) BroadcastMsg(msg string) {
	b.Broadcast("info", msg)
}

// BroadcastWriter implements io.Writer; each Write broadcasts the content to SSE clients.
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

// broadcastWriter wraps StatusBroadcaster as io.Writer for use with debug.SetOutput.
type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg != "" {
		w.b.BroadcastMsg(msg)
	}
	return len(p), nil
}

// TelemetryHub forwards control cycles to websocket clients as JSON.
// It implements telemetry.Observer and never blocks the control loop.
type TelemetryHub struct {
	hub
}

func NewTelemetryHub() *TelemetryHub {
	return &TelemetryHub{hub: newHub()}
}

func (t *TelemetryHub) OnCycle(s telemetry.Sample) {
	if t.Subscribers() == 0 {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	t.publish(data)
}
