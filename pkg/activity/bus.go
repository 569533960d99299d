// Package activity implements the Activity Bus, WebSocket hub, and webhook
// dispatcher (§4.7): an in-process pub/sub that durably records every
// ActivityEvent and fans it out to realtime subscribers.
package activity

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/outreachforge/prospector/pkg/clock"
	"github.com/outreachforge/prospector/pkg/models"
	"github.com/outreachforge/prospector/pkg/storage"
)

// DefaultQueueCapacity is the bounded per-user queue depth (Q in §4.7).
// Overflow drops the oldest event and records an error event in its place.
const DefaultQueueCapacity = 1024

// Subscriber receives events for one user, in publication order. Fed by the
// Bus's per-user dispatch goroutine — never called concurrently for the
// same user.
type Subscriber interface {
	Deliver(event models.ActivityEvent)
}

// Bus is the in-process pub/sub described in §4.7: Publish appends the event
// to durable storage and hands it to a bounded per-user queue, which a
// single dispatch goroutine per user drains into every live subscriber
// (WebSocket hub, webhook dispatcher) in order.
//
// Each user's queue and dispatch goroutine are created lazily on first
// Publish/Subscribe and live for the process lifetime — per §5, the bus is
// one of the few pieces of shared mutable state and owns its own map.
type Bus struct {
	Store storage.Store
	Clock clock.Clock

	QueueCapacity int

	mu    sync.Mutex
	users map[string]*userQueue
}

type userQueue struct {
	ch          chan models.ActivityEvent
	subscribers map[string]Subscriber
	cancel      context.CancelFunc
}

func (b *Bus) now() time.Time {
	if b.Clock != nil {
		return b.Clock.Now()
	}
	return time.Now()
}

func (b *Bus) capacity() int {
	if b.QueueCapacity > 0 {
		return b.QueueCapacity
	}
	return DefaultQueueCapacity
}

// Publish durably records event and enqueues it for fan-out. The returned
// error is only a storage failure; fan-out itself never fails a publish
// (queue overflow is handled internally by dropping the oldest entry and
// recording a synthesized error event).
func (b *Bus) Publish(ctx context.Context, event models.ActivityEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = b.now()
	}
	if err := storage.PutJSON(ctx, b.Store, storage.CollectionActivities, event.UserID, event.ID, &event); err != nil {
		return fmt.Errorf("persisting activity event: %w", err)
	}

	q := b.queueFor(event.UserID)
	select {
	case q.ch <- event:
	default:
		// Queue full: drop the oldest entry to make room for this one.
		select {
		case <-q.ch:
		default:
		}
		select {
		case q.ch <- event:
		default:
		}
		b.recordOverflow(ctx, event.UserID)
	}
	return nil
}

// recordOverflow persists (and best-effort enqueues) the error event §4.7
// requires when the bounded queue drops the oldest entry. It writes
// directly to storage and the channel rather than recursing through
// Publish, since that could loop forever under sustained backpressure.
func (b *Bus) recordOverflow(ctx context.Context, userID string) {
	overflow := models.ActivityEvent{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      models.ActivityError,
		Title:     "activity queue overflow",
		Message:   "oldest event dropped: subscriber fan-out could not keep up",
		Timestamp: b.now(),
	}
	if err := storage.PutJSON(ctx, b.Store, storage.CollectionActivities, userID, overflow.ID, &overflow); err != nil {
		slog.Error("failed to record activity overflow event", "user_id", userID, "error", err)
		return
	}
	q := b.queueFor(userID)
	select {
	case q.ch <- overflow:
	default:
	}
}

// Subscribe registers sub to receive every event published for userID from
// this point on, via its user's dispatch goroutine. The returned
// unsubscribe func must be called when the subscriber goes away (connection
// closed, webhook deleted).
func (b *Bus) Subscribe(userID, subscriberID string, sub Subscriber) (unsubscribe func()) {
	q := b.queueFor(userID)
	b.mu.Lock()
	q.subscribers[subscriberID] = sub
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(q.subscribers, subscriberID)
	}
}

// queueFor returns the per-user queue, creating it (and its dispatch
// goroutine) on first use.
func (b *Bus) queueFor(userID string) *userQueue {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.users == nil {
		b.users = make(map[string]*userQueue)
	}
	q, ok := b.users[userID]
	if ok {
		return q
	}
	ctx, cancel := context.WithCancel(context.Background())
	q = &userQueue{
		ch:          make(chan models.ActivityEvent, b.capacity()),
		subscribers: make(map[string]Subscriber),
		cancel:      cancel,
	}
	b.users[userID] = q
	go b.dispatchLoop(ctx, q)
	return q
}

// Stop tears down every per-user dispatch goroutine. cmd/server does not
// call it; the goroutines end with the process.
func (b *Bus) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, q := range b.users {
		q.cancel()
	}
}

// dispatchLoop drains q.ch in order, fanning each event out to every
// subscriber live at delivery time. A slow or gone subscriber never blocks
// delivery to the others: Deliver implementations (WebSocket hub, webhook
// dispatcher) are responsible for their own non-blocking handoff.
func (b *Bus) dispatchLoop(ctx context.Context, q *userQueue) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-q.ch:
			if !ok {
				return
			}
			b.mu.Lock()
			subs := make([]Subscriber, 0, len(q.subscribers))
			for _, s := range q.subscribers {
				subs = append(subs, s)
			}
			b.mu.Unlock()
			for _, s := range subs {
				s.Deliver(event)
			}
		}
	}
}
