package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/life-ease-api/pkg/jobs"
)

const notifierJobType = "realtime_event"

type eventRouter interface {
	SendToIdentity(identityID, event string, payload interface{}) int
	Broadcast(event string, payload interface{}) int
}

// eventPublisher is what domain services use to push realtime events.
type eventPublisher interface {
	Notify(identityID, event string, payload interface{})
	Broadcast(event string, payload interface{})
}

type noopPublisher struct{}

func (noopPublisher) Notify(string, string, interface{}) {}
func (noopPublisher) Broadcast(string, interface{})      {}

// notification is the job payload. An empty Recipient means every connection.
type notification struct {
	Recipient string
	Event     string
	Payload   interface{}
}

// NotifierConfig sizes the delivery worker pool.
type NotifierConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

// Notifier moves realtime delivery off the request path. Publishing never blocks:
// when the buffer is full the event is dropped and counted.
type Notifier struct {
	router  eventRouter
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotifier constructs a notifier. Call Start before publishing.
func NewNotifier(router eventRouter, cfg NotifierConfig, metrics *MetricsService, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	n := &Notifier{router: router, metrics: metrics, logger: logger}
	n.queue = jobs.NewQueue("notifier", n.deliver, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: cfg.MaxRetries,
		Logger:     logger,
	})
	return n
}

// Start launches the delivery workers.
func (n *Notifier) Start(ctx context.Context) {
	n.queue.Start(ctx)
}

// Stop waits for the workers to exit.
func (n *Notifier) Stop() {
	n.queue.Stop()
}

// Notify queues an event for every connection of identityID.
func (n *Notifier) Notify(identityID, event string, payload interface{}) {
	if identityID == "" {
		return
	}
	n.publish(notification{Recipient: identityID, Event: event, Payload: payload})
}

// Broadcast queues an event for every connection.
func (n *Notifier) Broadcast(event string, payload interface{}) {
	n.publish(notification{Event: event, Payload: payload})
}

func (n *Notifier) publish(note notification) {
	job := jobs.Job{ID: uuid.NewString(), Type: notifierJobType, Payload: note}
	if err := n.queue.TryEnqueue(job); err != nil {
		n.metrics.ObserveNotifierDrop(note.Event)
		n.logger.Warn("realtime event dropped", zap.String("event", note.Event), zap.Error(err))
	}
}

func (n *Notifier) deliver(_ context.Context, job jobs.Job) error {
	note, ok := job.Payload.(notification)
	if !ok {
		return fmt.Errorf("unexpected notifier payload %T", job.Payload)
	}
	if note.Recipient == "" {
		n.router.Broadcast(note.Event, note.Payload)
		return nil
	}
	n.router.SendToIdentity(note.Recipient, note.Event, note.Payload)
	return nil
}
