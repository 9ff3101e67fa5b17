package elements

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const recentEventLimit = 16

// StreamEvent is what subscribers of the broadcast hub receive.
type StreamEvent struct {
	Type         string          `json:"type"`
	Notification *Notification   `json:"notification,omitempty"`
	Element      *LifecycleEvent `json:"element,omitempty"`
}

const (
	StreamNotification = "notification"
	StreamElement      = "element"
)

// BroadcastHub fans notifications and lifecycle events out to in-process
// subscribers, SSE clients and websocket clients.
type BroadcastHub struct {
	mu     sync.RWMutex
	subs   map[int]chan StreamEvent
	next   int
	recent []StreamEvent
}

// NewBroadcastHub creates an empty hub.
func NewBroadcastHub() *BroadcastHub {
	return &BroadcastHub{
		subs: make(map[int]chan StreamEvent),
	}
}

// Notify satisfies Notifier.
func (h *BroadcastHub) Notify(_ context.Context, n Notification) {
	note := n
	h.publish(StreamEvent{Type: StreamNotification, Notification: &note})
}

// ElementChanged satisfies LifecycleHook.
func (h *BroadcastHub) ElementChanged(_ context.Context, event LifecycleEvent) error {
	ev := event
	h.publish(StreamEvent{Type: StreamElement, Element: &ev})
	return nil
}

func (h *BroadcastHub) publish(event StreamEvent) {
	h.mu.Lock()
	h.recent = append(h.recent, event)
	if len(h.recent) > recentEventLimit {
		h.recent = h.recent[len(h.recent)-recentEventLimit:]
	}
	h.mu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Recent returns the most recent events, oldest first.
func (h *BroadcastHub) Recent() []StreamEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]StreamEvent, len(h.recent))
	copy(out, h.recent)
	return out
}

// RecentNotifications returns the notifications among the recent events.
func (h *BroadcastHub) RecentNotifications() []Notification {
	var out []Notification
	for _, ev := range h.Recent() {
		if ev.Notification != nil {
			out = append(out, *ev.Notification)
		}
	}
	return out
}

// Subscribe returns a channel of events and a cancel func.
func (h *BroadcastHub) Subscribe() (<-chan StreamEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan StreamEvent, 8)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams events as JSON.
func (h *BroadcastHub) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	events, cancel := h.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE provides a Server-Sent Events endpoint.
func (h *BroadcastHub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	events, cancel := h.Subscribe()
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			w.Write([]byte("event: " + event.Type + "\ndata: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}
