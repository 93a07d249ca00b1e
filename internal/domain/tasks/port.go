package tasks

import (
	"context"
	"time"
)

// Scheduler port (interface untuk deferred-task transport)
type Scheduler interface {
	// Schedule enqueues t for delivery no earlier than now+delay.
	Schedule(ctx context.Context, t Task, delay time.Duration) error
}

// Handler consumes delivered tasks. Returned errors requeue the task.
type Handler interface {
	Handle(ctx context.Context, t Task) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, t Task) error

func (f HandlerFunc) Handle(ctx context.Context, t Task) error { return f(ctx, t) }
