package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func recv(t *testing.T, ch chan []byte) string {
	t.Helper()
	select {
	case msg := <-ch:
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
		return ""
	}
}

// drain collects whatever is queued once the loop has caught up.
func drain(ch chan []byte) []string {
	time.Sleep(50 * time.Millisecond)
	var out []string
	for {
		select {
		case msg := <-ch:
			out = append(out, string(msg))
		default:
			return out
		}
	}
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()

	ch := b.Subscribe(Filter{}, "")
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("clients = %d, want 1", n)
	}
	b.Unsubscribe(ch)
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("clients = %d after unsubscribe", n)
	}
}

func TestPublish_FrameFormat(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(Filter{}, "")

	b.Publish(Event{Type: TypeDayCreated, Data: DayData{Path: "j.org", Date: "2025-07-29"}})
	msg := recv(t, ch)
	if !strings.HasPrefix(msg, "id: ") || !strings.HasSuffix(msg, "\n\n") {
		t.Errorf("bad framing %q", msg)
	}
	if !strings.Contains(msg, "event: day.created\n") || !strings.Contains(msg, `"date":"2025-07-29"`) {
		t.Errorf("unexpected frame %q", msg)
	}

	b.Publish(Event{ID: "fixed", Type: TypeEntryPlaced, Data: DayData{Path: "j.org", Date: "2025-07-29", Title: "task"}})
	if msg := recv(t, ch); !strings.HasPrefix(msg, "id: fixed\n") {
		t.Errorf("explicit id not kept in %q", msg)
	}
}

func TestFilter(t *testing.T) {
	day := Event{Type: TypeDayCreated, Data: DayData{Path: "work.org", Date: "2025-07-29"}}
	cal := Event{Type: TypeCalendarUpdated, Data: struct{}{}}

	tests := []struct {
		name   string
		filter Filter
		event  Event
		want   bool
	}{
		{"zero matches all", Filter{}, day, true},
		{"path match", Filter{Path: "work.org"}, day, true},
		{"path mismatch", Filter{Path: "home.org"}, day, false},
		{"pathless passes path filter", Filter{Path: "home.org"}, cal, true},
		{"type match", Filter{Types: []string{TypeEntryPlaced, TypeDayCreated}}, day, true},
		{"type mismatch", Filter{Types: []string{TypeEntryPlaced}}, day, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.match(tt.event); got != tt.want {
				t.Errorf("match = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/events?path=a.org&types=day.created,+entry.placed,", nil)
	f := FilterFromRequest(r)
	if f.Path != "a.org" {
		t.Errorf("path = %q", f.Path)
	}
	if len(f.Types) != 2 || f.Types[0] != TypeDayCreated || f.Types[1] != TypeEntryPlaced {
		t.Errorf("types = %v", f.Types)
	}
}

func TestSubscribe_FilteredDelivery(t *testing.T) {
	b := NewBroker(time.Hour)
	defer b.Close()
	work := b.Subscribe(Filter{Path: "work.org"}, "")

	b.Publish(Event{Type: TypeDayCreated, Data: DayData{Path: "home.org", Date: "2025-07-29"}})
	b.Publish(Event{Type: TypeDayCreated, Data: DayData{Path: "work.org", Date: "2025-07-30"}})

	got := drain(work)
	if len(got) != 1 || !strings.Contains(got[0], "2025-07-30") {
		t.Errorf("work client got %q", got)
	}
}

func TestSubscribe_ReplaysAfterLastEventID(t *testing.T) {
	b := NewBroker(time.Hour, WithHistory(3))
	defer b.Close()

	for _, id := range []string{"e1", "e2", "e3", "e4"} {
		b.Publish(Event{ID: id, Type: TypeEntryPlaced, Data: DayData{Path: "j.org", Date: "2025-07-29"}})
	}
	// Publish is queued; let the loop record the history first.
	time.Sleep(50 * time.Millisecond)

	ch := b.Subscribe(Filter{}, "e2")
	got := drain(ch)
	if len(got) != 2 || !strings.HasPrefix(got[0], "id: e3\n") || !strings.HasPrefix(got[1], "id: e4\n") {
		t.Errorf("replay = %q", got)
	}

	// e1 fell out of the history; nothing is replayed.
	if got := drain(b.Subscribe(Filter{}, "e1")); len(got) != 0 {
		t.Errorf("replay of evicted id = %q", got)
	}
}

func TestPublishFileEvent_CalendarThrottle(t *testing.T) {
	b := NewBroker(500 * time.Millisecond)
	defer b.Close()
	ch := b.Subscribe(Filter{}, "")

	b.PublishFileEvent("created", "a.org")
	b.PublishFileEvent("updated", "b.org")

	calendar, files := 0, 0
	for _, msg := range drain(ch) {
		if strings.Contains(msg, "event: calendar.updated") {
			calendar++
		} else {
			files++
		}
	}
	if files != 2 {
		t.Errorf("file events = %d, want 2", files)
	}
	if calendar != 1 {
		t.Errorf("calendar events = %d, want 1", calendar)
	}
}

func TestServeHTTP_StreamsAndHeartbeats(t *testing.T) {
	b := NewBroker(time.Hour, WithHeartbeat(20*time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events?path=x.org", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if n := b.ClientCount(); n != 1 {
		t.Fatalf("clients = %d, want 1", n)
	}
	b.PublishFileEvent("updated", "y.org")
	b.PublishFileEvent("updated", "x.org")
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	body := w.Body.String()
	if strings.Contains(body, `"path":"y.org"`) {
		t.Errorf("filtered path leaked: %q", body)
	}
	if !strings.Contains(body, `"path":"x.org"`) || !strings.Contains(body, ": ping\n\n") {
		t.Errorf("body = %q", body)
	}
	if w.Header().Get("Content-Type") != "text/event-stream" {
		t.Errorf("content type = %q", w.Header().Get("Content-Type"))
	}

	time.Sleep(50 * time.Millisecond)
	if n := b.ClientCount(); n != 0 {
		t.Errorf("clients = %d after disconnect", n)
	}
}

func TestPublish_SlowClientDoesNotBlock(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	b.Subscribe(Filter{}, "")

	for i := 0; i < 100; i++ {
		b.Publish(Event{Type: TypeEntryPlaced, Data: DayData{Path: "j.org"}})
	}
	if n := b.ClientCount(); n != 1 {
		t.Errorf("clients = %d", n)
	}
}

func TestClose(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe(Filter{}, "")
	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("subscriber channel still open")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if n := b.ClientCount(); n != 0 {
		t.Fatalf("clients = %d after close", n)
	}

	// No-ops once closed.
	b.Publish(Event{Type: TypeFileUpdated, Data: FileData{Path: "x.org"}})
	b.PublishFileEvent("updated", "x.org")
	if _, ok := <-b.Subscribe(Filter{}, ""); ok {
		t.Error("subscribe after close returned an open channel")
	}
}
