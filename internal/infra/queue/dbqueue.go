package queue

import (
	"context"
	"log"
	"time"

	domain "github.com/bryanwahyu/reviewgate/internal/domain/tasks"
)

// Store is the persistence half of the transport (the mysql TaskRepository).
type Store interface {
	Enqueue(ctx context.Context, t domain.Task) error
	ClaimDue(ctx context.Context, now time.Time, staleAfter time.Duration, limit int) ([]domain.Task, error)
	Complete(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
}

// Queue is a polling deferred-task transport on top of a database table.
// Delivery is at-least-once with no ordering guarantee across tasks.
type Queue struct {
	store    Store
	handler  domain.Handler
	interval time.Duration
	batch    int
	stale    time.Duration
}

func New(store Store, interval time.Duration, batch int) *Queue {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if batch <= 0 {
		batch = 10
	}
	return &Queue{
		store:    store,
		interval: interval,
		batch:    batch,
		stale:    5 * time.Minute,
	}
}

// SetHandler wires the consumer. Must be called before Start; split from New
// because the orchestrator that handles tasks also needs the queue as its
// scheduler.
func (q *Queue) SetHandler(h domain.Handler) { q.handler = h }

// Schedule implements tasks.Scheduler.
func (q *Queue) Schedule(ctx context.Context, t domain.Task, delay time.Duration) error {
	t.DelayUntil = time.Now().Add(delay)
	return q.store.Enqueue(ctx, t)
}

// Start polls until ctx is cancelled. Run it on its own goroutine.
func (q *Queue) Start(ctx context.Context) {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.drain(ctx)
		}
	}
}

func (q *Queue) drain(ctx context.Context) {
	claimed, err := q.store.ClaimDue(ctx, time.Now(), q.stale, q.batch)
	if err != nil {
		log.Printf("queue claim: %v", err)
		return
	}
	for _, t := range claimed {
		if err := q.handler.Handle(ctx, t); err != nil {
			log.Printf("task %s (%s) failed, releasing for retry: %v", t.ID, t.Kind, err)
			if rerr := q.store.Release(ctx, t.ID); rerr != nil {
				log.Printf("release task %s: %v", t.ID, rerr)
			}
			continue
		}
		if err := q.store.Complete(ctx, t.ID); err != nil {
			// the task ran; a failed delete means one extra delivery,
			// which handlers tolerate
			log.Printf("complete task %s: %v", t.ID, err)
		}
	}
}
