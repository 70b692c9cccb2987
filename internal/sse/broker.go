// Package sse implements a Server-Sent Events broker for journal updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeDayCreated      = "day.created"
	TypeEntryPlaced     = "entry.placed"
	TypeFileCreated     = "file.created"
	TypeFileUpdated     = "file.updated"
	TypeFileDeleted     = "file.deleted"
	TypeCalendarUpdated = "calendar.updated"
)

// Event represents an SSE event to broadcast. An empty ID is filled in by
// the broker.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data any    `json:"data"`
}

// DayData is the payload of day.created and entry.placed.
type DayData struct {
	Path  string `json:"path"`
	Date  string `json:"date"`
	Title string `json:"title,omitempty"`
}

// EventPath implements pathed.
func (d DayData) EventPath() string { return d.Path }

// FileData is the payload of file.* events.
type FileData struct {
	Path string `json:"path"`
}

// EventPath implements pathed.
func (d FileData) EventPath() string { return d.Path }

type pathed interface {
	EventPath() string
}

// Filter selects the events a client receives. Events without a path (such
// as calendar.updated) pass any Path filter. The zero value matches all.
type Filter struct {
	Path  string
	Types []string
}

func (f Filter) match(e Event) bool {
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if t == e.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Path != "" {
		if p, ok := e.Data.(pathed); ok && p.EventPath() != f.Path {
			return false
		}
	}
	return true
}

// FilterFromRequest reads ?path= and a comma-separated ?types= list.
func FilterFromRequest(r *http.Request) Filter {
	q := r.URL.Query()
	f := Filter{Path: q.Get("path")}
	if raw := q.Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				f.Types = append(f.Types, t)
			}
		}
	}
	return f
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat sets how often idle streams get a keep-alive comment.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) { b.heartbeat = d }
}

// WithHistory sets how many recent events are kept for Last-Event-ID replay.
func WithHistory(n int) Option {
	return func(b *Broker) { b.historySize = n }
}

type client struct {
	ch     chan []byte
	filter Filter
}

type subscribeReq struct {
	c      *client
	lastID string
}

type fileEventReq struct {
	kind string
	path string
}

type sent struct {
	event Event
	raw   []byte
}

// Broker manages SSE client connections and broadcasts events.
//
// A single event loop goroutine owns the clients, the replay history and the
// calendar throttle timestamp. Public methods talk to it over channels.
type Broker struct {
	calendarMin time.Duration
	heartbeat   time.Duration
	historySize int

	subscribeCh   chan subscribeReq
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	fileEventCh   chan fileEventReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. calendar.updated is emitted at most
// once per throttle interval.
func NewBroker(throttle time.Duration, opts ...Option) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		calendarMin:   throttle,
		heartbeat:     15 * time.Second,
		historySize:   128,
		subscribeCh:   make(chan subscribeReq),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		fileEventCh:   make(chan fileEventReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	go b.run()
	return b
}

func encode(event Event) ([]byte, error) {
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("id: %s\nevent: %s\ndata: %s\n\n", event.ID, event.Type, payload)), nil
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]*client)
	var history []sent
	var lastCalendar time.Time

	send := func(c *client, s sent) {
		if !c.filter.match(s.event) {
			return
		}
		select {
		case c.ch <- s.raw:
		default:
			// Slow client; drop.
		}
	}

	broadcast := func(event Event) {
		if event.ID == "" {
			event.ID = uuid.NewString()
		}
		raw, err := encode(event)
		if err != nil {
			return
		}
		s := sent{event: event, raw: raw}
		if b.historySize > 0 {
			history = append(history, s)
			if len(history) > b.historySize {
				history = history[len(history)-b.historySize:]
			}
		}
		for _, c := range clients {
			send(c, s)
		}
	}

	replay := func(c *client, lastID string) {
		for i := len(history) - 1; i >= 0; i-- {
			if history[i].event.ID == lastID {
				for _, s := range history[i+1:] {
					send(c, s)
				}
				return
			}
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case req := <-b.subscribeCh:
			clients[req.c.ch] = req.c
			if req.lastID != "" {
				replay(req.c, req.lastID)
			}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.fileEventCh:
			data := FileData{Path: req.path}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeFileCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TypeFileUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeFileDeleted, Data: data})
			}

			now := time.Now()
			if now.Sub(lastCalendar) >= b.calendarMin {
				lastCalendar = now
				broadcast(Event{Type: TypeCalendarUpdated, Data: struct{}{}})
			}

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a client receiving events that match f. When lastEventID is
// still in the history, the events after it are queued first.
func (b *Broker) Subscribe(f Filter, lastEventID string) chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- subscribeReq{c: &client{ch: ch, filter: f}, lastID: lastEventID}:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all matching clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishFileEvent publishes a journal file change and a throttled
// calendar.updated event. kind is "created", "updated" or "deleted".
func (b *Broker) PublishFileEvent(kind, path string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.fileEventCh <- fileEventReq{kind: kind, path: path}:
	case <-b.stopped:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events). It honours the
// Last-Event-ID header and the filters read by FilterFromRequest.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe(FilterFromRequest(r), r.Header.Get("Last-Event-ID"))
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		ticker := time.NewTicker(b.heartbeat)
		defer ticker.Stop()
		tick = ticker.C
	}

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			_, _ = w.Write([]byte(": ping\n\n"))
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
