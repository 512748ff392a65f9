package web

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// subscriberBuffer is the number of events queued per SSE client.
const subscriberBuffer = 64

// ProgressEvent reports how far a planning run has gone.
type ProgressEvent struct {
	Area      int `json:"area"`  // 1-based
	Areas     int `json:"areas"` // total
	Waypoints int `json:"waypoints"`
}

// StatusEvent is a single SSE message.
type StatusEvent struct {
	Time     string         `json:"t"`
	Level    string         `json:"l,omitempty"`
	Msg      string         `json:"msg"`
	Progress *ProgressEvent `json:"progress,omitempty"`
}

// StatusBroadcaster fans status events out to every SSE client.
type StatusBroadcaster struct {
	mu      sync.RWMutex
	clients map[chan string]struct{}
}

func NewStatusBroadcaster() *StatusBroadcaster {
	return &StatusBroadcaster{
		clients: make(map[chan string]struct{}),
	}
}

// Subscribe returns a channel of JSON-encoded events and its cleanup function.
// The caller must call cleanup when done (e.g. on client disconnect).
func (b *StatusBroadcaster) Subscribe() (<-chan string, func()) {
	ch := make(chan string, subscriberBuffer)
	b.mu.Lock()
	b.clients[ch] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, unsub
}

// Subscribers returns the number of connected clients.
func (b *StatusBroadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func (b *StatusBroadcaster) publish(evt StatusEvent) {
	evt.Time = time.Now().Format(time.RFC3339)
	data, err := json.Marshal(evt)
	if err != nil {
		return
	}
	payload := string(data)

	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.clients {
		select {
		case ch <- payload:
		default:
			// client too slow, drop
		}
	}
}

// Broadcast sends {"t":"...","l":level,"msg":msg} to all clients.
// Slow clients may miss messages.
func (b *StatusBroadcaster) Broadcast(level, msg string) {
	b.publish(StatusEvent{Level: level, Msg: msg})
}

// BroadcastMsg is a convenience for level "info".
func (b *StatusBroadcaster) BroadcastMsg(msg string) {
	b.Broadcast("info", msg)
}

// BroadcastProgress sends a level "progress" event for area (0-based) out
// of areas.
func (b *StatusBroadcaster) BroadcastProgress(area, areas, waypoints int) {
	b.publish(StatusEvent{
		Level:    "progress",
		Msg:      fmt.Sprintf("Area %d/%d: %d waypoints", area+1, areas, waypoints),
		Progress: &ProgressEvent{Area: area + 1, Areas: areas, Waypoints: waypoints},
	})
}

// BroadcastWriter implements io.Writer; each Write broadcasts the content to SSE clients.
func BroadcastWriter(b *StatusBroadcaster) *broadcastWriter {
	return &broadcastWriter{b: b}
}

// broadcastWriter lets debug output be teed to SSE clients.
type broadcastWriter struct {
	b *StatusBroadcaster
}

func (w *broadcastWriter) Write(p []byte) (n int, err error) {
	for _, line := range strings.Split(string(p), "\n") {
		if msg := strings.TrimSpace(line); msg != "" {
			w.b.BroadcastMsg(msg)
		}
	}
	return len(p), nil
}
