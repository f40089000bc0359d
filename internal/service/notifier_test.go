package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routedEvent struct {
	Recipient string
	Event     string
	Payload   interface{}
}

type recordingRouter struct {
	mu     sync.Mutex
	events []routedEvent
	block  chan struct{}
}

func (r *recordingRouter) SendToIdentity(identityID, event string, payload interface{}) int {
	if r.block != nil {
		<-r.block
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, routedEvent{Recipient: identityID, Event: event, Payload: payload})
	return 1
}

func (r *recordingRouter) Broadcast(event string, payload interface{}) int {
	return r.SendToIdentity("", event, payload)
}

func (r *recordingRouter) snapshot() []routedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]routedEvent(nil), r.events...)
}

// recordingPublisher captures published events synchronously for service tests.
type recordingPublisher struct {
	mu     sync.Mutex
	events []routedEvent
}

func (p *recordingPublisher) Notify(identityID, event string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, routedEvent{Recipient: identityID, Event: event, Payload: payload})
}

func (p *recordingPublisher) Broadcast(event string, payload interface{}) {
	p.Notify("", event, payload)
}

func (p *recordingPublisher) named(event string) []routedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []routedEvent
	for _, e := range p.events {
		if e.Event == event {
			out = append(out, e)
		}
	}
	return out
}

func TestNotifierDeliversThroughRouter(t *testing.T) {
	router := &recordingRouter{}
	n := NewNotifier(router, NotifierConfig{Workers: 1, BufferSize: 8}, nil, nil)
	n.Start(context.Background())
	defer n.Stop()

	n.Notify("u1", "task:assigned", "payload")
	n.Broadcast("message:read", nil)
	n.Notify("", "ignored", nil)

	require.Eventually(t, func() bool { return len(router.snapshot()) == 2 }, time.Second, 10*time.Millisecond)
	events := router.snapshot()
	assert.Equal(t, routedEvent{Recipient: "u1", Event: "task:assigned", Payload: "payload"}, events[0])
	assert.Equal(t, routedEvent{Recipient: "", Event: "message:read"}, events[1])
}

func TestNotifierDropsWhenBufferFull(t *testing.T) {
	router := &recordingRouter{block: make(chan struct{})}
	metrics := NewMetricsService()
	n := NewNotifier(router, NotifierConfig{Workers: 1, BufferSize: 1}, metrics, nil)
	n.Start(context.Background())

	for i := 0; i < 10; i++ {
		n.Notify("u1", "task:updated", i)
	}
	close(router.block)
	n.Stop()

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	var dropped float64
	for _, mf := range families {
		if mf.GetName() == "notifier_dropped_events_total" {
			for _, m := range mf.GetMetric() {
				dropped += m.GetCounter().GetValue()
			}
		}
	}
	assert.GreaterOrEqual(t, dropped, float64(8))
}

func TestNotifierBeforeStartDropsWithoutBlocking(t *testing.T) {
	n := NewNotifier(&recordingRouter{}, NotifierConfig{}, nil, nil)
	done := make(chan struct{})
	go func() {
		n.Notify("u1", "task:assigned", nil)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked before Start")
	}
}
