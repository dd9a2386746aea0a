// Package sse streams bookmark changes to connected popups as Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/shelf/internal/bookmarkservice"
)

// Event names sent on the stream.
const (
	EventListInvalidated = "list.invalidated"
	EventMetadataChanged = "metadata.changed"
)

var changeEventTypes = map[string]string{
	bookmarkservice.ChangeCreated:         "bookmark.created",
	bookmarkservice.ChangeUpdated:         "bookmark.updated",
	bookmarkservice.ChangeDeleted:         "bookmark.deleted",
	bookmarkservice.ChangeFavoriteToggled: "favorite.toggled",
}

const clientBuffer = 64

// Event is one message broadcast to every client.
type Event struct {
	Type string
	Data any
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat sets how often idle streams receive a comment line so
// proxies and the browser keep the connection open. Zero disables it.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) {
		b.heartbeat = d
	}
}

// Broker fans events out to SSE clients.
//
// All client bookkeeping lives in hub and is touched only by the loop
// goroutine; exported methods hand it closures over cmds.
type Broker struct {
	heartbeat time.Duration

	cmds    chan func(*hub)
	done    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

type hub struct {
	clients        map[chan []byte]struct{}
	seq            uint64
	throttle       time.Duration
	lastInvalidate time.Time
}

func (h *hub) broadcast(typ string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	h.seq++
	msg := []byte(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", h.seq, typ, payload))
	for ch := range h.clients {
		select {
		case ch <- msg:
		default:
			// Slow client; it re-queries on the next list.invalidated.
		}
	}
}

func (h *hub) invalidate(now time.Time) {
	if now.Sub(h.lastInvalidate) < h.throttle {
		return
	}
	h.lastInvalidate = now
	h.broadcast(EventListInvalidated, struct{}{})
}

// NewBroker starts a broker. At most one list.invalidated event is sent
// per throttle interval; a non-positive throttle means one second.
func NewBroker(throttle time.Duration, opts ...Option) *Broker {
	if throttle <= 0 {
		throttle = time.Second
	}
	b := &Broker{
		heartbeat: 30 * time.Second,
		cmds:      make(chan func(*hub), 256),
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	h := &hub{clients: make(map[chan []byte]struct{}), throttle: throttle}
	go b.loop(h)
	return b
}

func (b *Broker) loop(h *hub) {
	defer close(b.stopped)
	for {
		select {
		case <-b.done:
			for ch := range h.clients {
				close(ch)
			}
			clear(h.clients)
			return
		case fn := <-b.cmds:
			fn(h)
		}
	}
}

// do hands fn to the loop. It reports false once the broker is closed.
func (b *Broker) do(fn func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.cmds <- fn:
		return true
	case <-b.stopped:
		return false
	}
}

// Close stops the loop and closes every client channel. Safe to call twice.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.done)
	}
	<-b.stopped
}

// Subscribe registers a client. The returned channel is closed by
// Unsubscribe or Close; on a closed broker it is already closed.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	registered := make(chan struct{})
	ok := b.do(func(h *hub) {
		h.clients[ch] = struct{}{}
		close(registered)
	})
	if !ok {
		close(ch)
		return ch
	}
	select {
	case <-registered:
	case <-b.stopped:
		select {
		case <-registered:
			// The loop closed ch on its way out.
		default:
			close(ch)
		}
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) {
		if _, ok := h.clients[ch]; ok {
			delete(h.clients, ch)
			close(ch)
		}
	})
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	resp := make(chan int, 1)
	if !b.do(func(h *hub) { resp <- len(h.clients) }) {
		return 0
	}
	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish broadcasts event to every client.
func (b *Broker) Publish(event Event) {
	b.do(func(h *hub) { h.broadcast(event.Type, event.Data) })
}

// PublishChange reports a bookmark mutation, then a throttled
// list.invalidated telling clients to re-run their query. Unknown kinds
// only invalidate. Its signature matches bookmarkservice.Notifier.
func (b *Broker) PublishChange(kind, id string) {
	b.do(func(h *hub) {
		if typ, ok := changeEventTypes[kind]; ok {
			h.broadcast(typ, map[string]string{"id": id})
		}
		h.invalidate(time.Now())
	})
}

// PublishMetadataChanged reports a metadata document (favorites, tags,
// theme) rewritten outside this process.
func (b *Broker) PublishMetadataChanged(key string) {
	b.do(func(h *hub) {
		h.broadcast(EventMetadataChanged, map[string]string{"key": key})
		h.invalidate(time.Now())
	})
}

// ServeHTTP streams events until the client disconnects or the broker
// closes. CORS headers come from the router middleware.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			if _, err := w.Write([]byte(": ping\n\n")); err != nil {
				return
			}
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
