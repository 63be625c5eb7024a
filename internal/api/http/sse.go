package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/scriptdeck/scriptdeck/internal/supervisor"
)

const (
	eventScriptOutput = "script-output"
	eventScriptExit   = "script-exit"

	subscriberBuffer = 256
)

type sseMessage struct {
	name string
	data []byte
}

// Hub fans supervisor events out to SSE subscribers. Delivery is
// fire-and-forget: a subscriber that cannot keep up has events dropped
// rather than stalling the stream relays that publish them.
//
// Subscriber channels are never closed. Sends happen only under the lock,
// so unsubscribing just forgets the channel; subscriber loops exit through
// their request context or the hub's done signal.
type Hub struct {
	mu     sync.Mutex
	closed bool
	done   chan struct{}
	subs   map[chan sseMessage]struct{}
}

func NewHub() *Hub {
	return &Hub{
		done: make(chan struct{}),
		subs: make(map[chan sseMessage]struct{}),
	}
}

var _ supervisor.Bridge = (*Hub)(nil)

// OnOutput implements supervisor.Bridge.
func (h *Hub) OnOutput(event supervisor.OutputEvent) {
	h.publish(eventScriptOutput, event)
}

// OnExit implements supervisor.Bridge.
func (h *Hub) OnExit(event supervisor.ExitEvent) {
	h.publish(eventScriptExit, event)
}

func (h *Hub) publish(name string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	msg := sseMessage{name: name, data: data}

	// Non-blocking sends under the lock: a channel present in the map
	// cannot be concurrently forgotten mid-send, and a full subscriber
	// never holds the lock up.
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
		}
	}
}

func (h *Hub) subscribe() (chan sseMessage, func()) {
	ch := make(chan sseMessage, subscriberBuffer)

	h.mu.Lock()
	if !h.closed {
		h.subs[ch] = struct{}{}
	}
	h.mu.Unlock()

	release := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, release
}

// Close detaches all subscribers and wakes their serving loops. Later
// subscriptions receive nothing.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	h.subs = make(map[chan sseMessage]struct{})
	close(h.done)
}

// ServeHTTP streams events to one subscriber until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, release := h.subscribe()
	defer release()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-h.done:
			return
		case msg := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.name, msg.data)
			flusher.Flush()
		}
	}
}
