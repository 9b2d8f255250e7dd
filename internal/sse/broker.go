// Package sse streams procedure changes to connected editors as
// Server-Sent Events.
package sse

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"
)

const (
	clientBuffer = 64
	retryMillis  = 3000
)

// Event is one message sent to every subscriber.
//
// A throttled event is dropped when an event of the same type went out less
// than the broker's throttle interval ago.
type Event struct {
	Type      string
	Data      any
	Throttled bool
}

// Broker fans events out to subscribers.
//
// One goroutine owns the subscriber set, the event counter and the throttle
// timestamps; every public method talks to it over channels.
type Broker struct {
	throttle  time.Duration
	heartbeat time.Duration
	now       func() time.Time

	events  chan Event
	join    chan chan []byte
	leave   chan chan []byte
	count   chan chan int
	stop    chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// Option configures a Broker.
type Option func(*Broker)

// WithHeartbeat sends a comment line to idle streams every d so proxies keep
// the connection open. Zero disables it.
func WithHeartbeat(d time.Duration) Option {
	return func(b *Broker) { b.heartbeat = d }
}

// WithClock overrides the time source of the throttle.
func WithClock(now func() time.Time) Option {
	return func(b *Broker) { b.now = now }
}

// NewBroker starts a broker. Throttled events of one type go out at most
// once per throttle.
func NewBroker(throttle time.Duration, opts ...Option) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}
	b := &Broker{
		throttle:  throttle,
		heartbeat: 15 * time.Second,
		now:       time.Now,
		events:    make(chan Event, 256),
		join:      make(chan chan []byte),
		leave:     make(chan chan []byte),
		count:     make(chan chan int),
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	go b.loop()
	return b
}

// frame renders one event in the text/event-stream format.
func frame(id uint64, e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString("id: ")
	buf.WriteString(strconv.FormatUint(id, 10))
	buf.WriteString("\nevent: ")
	buf.WriteString(e.Type)
	buf.WriteString("\ndata: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

func (b *Broker) loop() {
	defer close(b.stopped)

	subscribers := make(map[chan []byte]struct{})
	lastSent := make(map[string]time.Time)
	var seq uint64

	for {
		select {
		case <-b.stop:
			for ch := range subscribers {
				close(ch)
			}
			return

		case ch := <-b.join:
			subscribers[ch] = struct{}{}

		case ch := <-b.leave:
			if _, ok := subscribers[ch]; ok {
				delete(subscribers, ch)
				close(ch)
			}

		case resp := <-b.count:
			resp <- len(subscribers)

		case e := <-b.events:
			if e.Throttled {
				now := b.now()
				if last, ok := lastSent[e.Type]; ok && now.Sub(last) < b.throttle {
					continue
				}
				lastSent[e.Type] = now
			}
			seq++
			msg, err := frame(seq, e)
			if err != nil {
				continue
			}
			for ch := range subscribers {
				select {
				case ch <- msg:
				default:
					// Slow subscriber: drop rather than stall the loop.
				}
			}
		}
	}
}

// Close stops the loop and closes every subscriber channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.stopped
}

// Subscribe registers a subscriber. The channel is closed by Unsubscribe or
// Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBuffer)
	if b.closed.Load() {
		close(ch)
		return ch
	}
	select {
	case b.join <- ch:
	case <-b.stopped:
		close(ch)
	}
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.leave <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of subscribers.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}
	resp := make(chan int, 1)
	select {
	case b.count <- resp:
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

// Publish queues an event. It is a no-op once the broker is closed.
func (b *Broker) Publish(e Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.events <- e:
	case <-b.stopped:
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("retry: " + strconv.Itoa(retryMillis) + "\n\n"))
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	var tick <-chan time.Time
	if b.heartbeat > 0 {
		t := time.NewTicker(b.heartbeat)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-r.Context().Done():
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
