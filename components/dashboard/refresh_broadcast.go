package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SessionHeader carries the dashboard session id when the query parameter is absent.
const SessionHeader = "X-Agrik-Session"

const (
	defaultKeepAlive  = 25 * time.Second
	subscriberBuffer  = 8
	websocketWriteMax = 10 * time.Second
)

// BroadcastHook fans out chat events to in-process subscribers.
type BroadcastHook struct {
	keepAlive time.Duration

	mu   sync.RWMutex
	subs map[int]subscription
	next int
}

type subscription struct {
	sessionID string
	ch        chan ChatEvent
}

// BroadcastOption customizes a BroadcastHook.
type BroadcastOption func(*BroadcastHook)

// WithKeepAlive sets the interval of WebSocket pings and SSE comment heartbeats.
func WithKeepAlive(d time.Duration) BroadcastOption {
	return func(h *BroadcastHook) {
		if d > 0 {
			h.keepAlive = d
		}
	}
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook(options ...BroadcastOption) *BroadcastHook {
	h := &BroadcastHook{
		keepAlive: defaultKeepAlive,
		subs:      make(map[int]subscription),
	}
	for _, opt := range options {
		opt(h)
	}
	return h
}

// ChatUpdated satisfies the RefreshHook interface and broadcasts events.
// Slow subscribers miss events rather than block the publisher.
func (h *BroadcastHook) ChatUpdated(ctx context.Context, event ChatEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if sub.sessionID != "" && sub.sessionID != event.SessionID {
			continue
		}
		select {
		case sub.ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of events for sessionID (all sessions when empty) and a cancel func.
// The empty id is for in-process consumers; the HTTP streams always require a session.
func (h *BroadcastHook) Subscribe(sessionID string) (<-chan ChatEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan ChatEvent, subscriberBuffer)
	h.subs[id] = subscription{sessionID: sessionID, ch: ch}
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
	return ch, cancel
}

// Subscribers reports the number of attached subscribers.
func (h *BroadcastHook) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

var errStreamSession = errors.New("dashboard: stream requires a session id")

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func streamSession(r *http.Request) string {
	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}
	return r.Header.Get(SessionHeader)
}

// ServeWebSocket upgrades the request and streams the session's chat events as JSON.
// The connection is pinged every keep-alive interval and dropped once the peer stops answering.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	session := streamSession(r)
	if session == "" {
		http.Error(w, errStreamSession.Error(), http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe(session)
	defer cancel()

	pongWait := 2 * h.keepAlive
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// The page never sends messages; reading only services control frames and detects close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(h.keepAlive)
	defer ping.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-closed:
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(websocketWriteMax)); err != nil {
				return
			}
		case event, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(websocketWriteMax))
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE provides a Server-Sent Events endpoint for chat events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	session := streamSession(r)
	if session == "" {
		http.Error(w, errStreamSession.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events, cancel := h.Subscribe(session)
	defer cancel()

	heartbeat := time.NewTicker(h.keepAlive)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			payload, err := json.Marshal(event)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
