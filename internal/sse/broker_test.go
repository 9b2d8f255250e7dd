package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/procforge/internal/session"
)

// receive collects every message that arrives on ch within wait.
func receive(ch chan []byte, wait time.Duration) []string {
	var out []string
	deadline := time.After(wait)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, string(msg))
		case <-deadline:
			return out
		}
	}
}

func countType(msgs []string, eventType string) int {
	n := 0
	for _, m := range msgs {
		if strings.Contains(m, "event: "+eventType+"\n") {
			n++
		}
	}
	return n
}

func TestSubscribeUnsubscribe(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	defer b.Close()
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients")
	}
	ch := b.Subscribe()
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client")
	}
	b.Unsubscribe(ch)
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after unsub")
	}
	if _, ok := <-ch; ok {
		t.Fatal("channel not closed by Unsubscribe")
	}
}

func TestFrameFormat(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "procedure.exported", Data: ChangeEvent{Version: "1.1.0"}})
	b.Publish(Event{Type: "procedure.updated", Data: ChangeEvent{Version: "1.1.0", Detail: "title"}})

	msgs := receive(ch, 100*time.Millisecond)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if want := "id: 1\nevent: procedure.exported\ndata: {\"version\":\"1.1.0\"}\n\n"; msgs[0] != want {
		t.Errorf("first frame = %q, want %q", msgs[0], want)
	}
	if !strings.HasPrefix(msgs[1], "id: 2\n") || !strings.Contains(msgs[1], `"detail":"title"`) {
		t.Errorf("second frame = %q", msgs[1])
	}
}

func TestThrottledEventsPerType(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	b := NewBroker(time.Second, WithClock(clock))
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.Publish(Event{Type: "a", Data: 1, Throttled: true})
	b.Publish(Event{Type: "a", Data: 2, Throttled: true})
	b.Publish(Event{Type: "b", Data: 3, Throttled: true})
	b.Publish(Event{Type: "c", Data: 4})
	b.Publish(Event{Type: "c", Data: 5})
	msgs := receive(ch, 100*time.Millisecond)

	if got := countType(msgs, "a"); got != 1 {
		t.Errorf("a events = %d, want 1", got)
	}
	if got := countType(msgs, "b"); got != 1 {
		t.Errorf("b events = %d, want 1 (separate throttle)", got)
	}
	if got := countType(msgs, "c"); got != 2 {
		t.Errorf("c events = %d, want 2 (not throttled)", got)
	}

	advance(time.Second)
	b.Publish(Event{Type: "a", Data: 6, Throttled: true})
	if got := countType(receive(ch, 100*time.Millisecond), "a"); got != 1 {
		t.Errorf("a after interval = %d, want 1", got)
	}
}

func TestPublishChange(t *testing.T) {
	b := NewBroker(time.Minute)
	defer b.Close()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	b.PublishChange(session.Change{Kind: session.ChangeUpdated, Version: "1.0.0"})
	b.PublishChange(session.Change{Kind: session.ChangeLogo, Version: "1.0.0", Detail: "image/png"})
	msgs := receive(ch, 100*time.Millisecond)

	if got := countType(msgs, "procedure.updated"); got != 1 {
		t.Errorf("procedure.updated = %d, want 1", got)
	}
	if got := countType(msgs, "procedure.logo"); got != 1 {
		t.Errorf("procedure.logo = %d, want 1", got)
	}
	if got := countType(msgs, PreviewUpdated); got != 1 {
		t.Errorf("%s = %d, want 1 (throttled)", PreviewUpdated, got)
	}
}

func TestServeHTTP(t *testing.T) {
	b := NewBroker(100*time.Millisecond, WithHeartbeat(20*time.Millisecond))
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		b.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 1 {
		t.Fatalf("expected 1 client from handler")
	}

	b.PublishChange(session.Change{Kind: session.ChangeImported, Version: "2.0.0", Detail: "Migration"})
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := w.Body.String()
	for _, want := range []string{"retry: 3000\n\n", "event: procedure.imported\n", ": ping\n\n"} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q in %q", want, body)
		}
	}

	time.Sleep(50 * time.Millisecond)
	if b.ClientCount() != 0 {
		t.Errorf("client not cleaned up after disconnect")
	}
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBroker(time.Second)
	defer b.Close()
	slow := b.Subscribe()
	defer b.Unsubscribe(slow)

	for i := 0; i < clientBuffer+10; i++ {
		b.Publish(Event{Type: "procedure.updated", Data: i})
	}
	time.Sleep(50 * time.Millisecond)
	if got := b.ClientCount(); got != 1 {
		t.Fatalf("clients = %d, want 1", got)
	}
	if got := len(slow); got != clientBuffer {
		t.Errorf("buffered = %d, want %d", got, clientBuffer)
	}
}

func TestCloseClosesSubscribers(t *testing.T) {
	b := NewBroker(100 * time.Millisecond)
	ch := b.Subscribe()

	b.Close()

	select {
	case _, ok := <-ch:
		if ok {
			t.Fatal("expected subscriber channel to be closed")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for channel close")
	}
	if b.ClientCount() != 0 {
		t.Fatalf("expected 0 clients after close")
	}

	// No-ops after close.
	b.Publish(Event{Type: "procedure.updated", Data: ChangeEvent{Version: "1.0.0"}})
	b.PublishChange(session.Change{Kind: session.ChangeUpdated, Version: "1.0.0"})
	if _, ok := <-b.Subscribe(); ok {
		t.Fatal("subscribe after close returned an open channel")
	}
	b.Close()
}
