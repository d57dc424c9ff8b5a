package web

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cjeanneret/ballplate/internal/debug"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
)

// RunInfo is the read-only description of the running controller served
// at /config.
type RunInfo struct {
	Mode      string     `json:"mode"`
	Profile   string     `json:"profile"`
	Gains     [3]float64 `json:"gains"` // kp, ki, kd
	DeadZone  bool       `json:"dead_zone"`
	TargetCm  [2]float64 `json:"target_cm"`
	TiltMax   float64    `json:"tilt_max_rad"`
	ActMin    float64    `json:"actuator_min_rad"`
	ActMax    float64    `json:"actuator_max_rad"`
	RecordDir string     `json:"record_dir,omitempty"`
	RunID     string     `json:"run_id,omitempty"`
}

// StateFunc reports the orchestrator state and dispatched cycle count.
type StateFunc func() (state string, cycles uint64)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Status    *StatusBroadcaster
	Telemetry *TelemetryHub
	Info      RunInfo
	State     StateFunc
	staticFS  fs.FS
	upgrader  websocket.Upgrader
}

// NewHandlers creates handlers with the given dependencies.
// If state is nil, /state reports "unknown".
func NewHandlers(status *StatusBroadcaster, tel *TelemetryHub, info RunInfo, state StateFunc, staticFS fs.FS) *Handlers {
	return &Handlers{
		Status:    status,
		Telemetry: tel,
		Info:      info,
		State:     state,
		staticFS:  staticFS,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // monitor is meant for the local network
			},
		},
	}
}

// HandleConfig returns the running configuration as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Info)
}

// HandleState returns {"state": "...", "cycles": n}.
func (h *Handlers) HandleState(w http.ResponseWriter, r *http.Request) {
	state, cycles := "unknown", uint64(0)
	if h.State != nil {
		state, cycles = h.State()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(struct {
		State  string `json:"state"`
		Cycles uint64 `json:"cycles"`
	}{state, cycles})
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Status.Subscribe()
	defer unsub()

	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: "))
			w.Write(msg)
			w.Write([]byte("\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// HandleTelemetry upgrades GET /telemetry to a websocket streaming one
// JSON sample per control cycle. Client messages are ignored.
func (h *Handlers) HandleTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		debug.Verbose("Telemetry: websocket upgrade failed: %v", err)
		return
	}
	ch, unsub := h.Telemetry.Subscribe()
	debug.Verbose("Telemetry: client %s connected", r.RemoteAddr)

	go writePump(conn, ch)
	readPump(conn)
	unsub()
	debug.Verbose("Telemetry: client %s gone", r.RemoteAddr)
}

// readPump consumes control frames until the peer goes away.
func readPump(conn *websocket.Conn) {
	conn.SetReadLimit(4096)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				debug.Verbose("Telemetry: websocket error: %v", err)
			}
			return
		}
	}
}

// writePump is the only writer on conn. It exits when ch is closed.
func writePump(conn *websocket.Conn, ch <-chan []byte) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case msg, ok := <-ch:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
