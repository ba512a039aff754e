// Package shutdownqueue provides a LIFO queue of cleanup tasks, drained at
// the end of main:
//
//	sq := shutdownqueue.New()
//	sq.Add(func(ctx context.Context) error { return srv.Shutdown(ctx) })
//	...
//	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
//	defer cancel()
//	defer sq.Shutdown(ctx)
//
// Tasks run once, in reverse order of registration. Panics are recovered.
// Shutdown is idempotent and returns an aggregated error via errors.Join.
package shutdownqueue

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Task is a shutdown function. It should honor ctx and return an error
// if it can't finish (or ctx is canceled).
type Task func(ctx context.Context) error

// Queue collects shutdown tasks. The zero value is not usable; construct
// with New. Each Queue is owned by the run function that created it.
type Queue struct {
	mu     sync.Mutex
	tasks  []Task
	closed bool
}

func New() *Queue {
	return &Queue{tasks: make([]Task, 0, 8)}
}

// Add registers a task to be run on Shutdown, in LIFO order. Safe to call
// from any goroutine. If t is nil or shutdown has already started, Add does
// nothing.
func (q *Queue) Add(t Task) {
	if t == nil {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.tasks = append(q.tasks, t)
}

// Shutdown drains all registered tasks in LIFO order. It is safe to call
// multiple times; after the first run, subsequent calls are no-ops.
//
// If ctx is canceled or times out mid-drain, Shutdown stops early and
// returns an error that includes both the context error and any task errors
// so far, joined with errors.Join.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()

	if q.closed {
		q.mu.Unlock()

		return nil
	}

	q.closed = true
	tasks := q.tasks
	q.tasks = nil

	q.mu.Unlock()

	var errs []error

	for i := len(tasks) - 1; i >= 0; i-- {
		select {
		case <-ctx.Done():
			errs = append(errs, fmt.Errorf("shutdown canceled: %w", ctx.Err()))

			return errors.Join(errs...)
		default:
		}

		runTask(tasks[i], ctx, &errs)
	}

	return errors.Join(errs...)
}

func runTask(t Task, ctx context.Context, errs *[]error) {
	defer func() {
		r := recover()
		if r != nil {
			*errs = append(*errs, fmt.Errorf("panic in shutdown task: %v", r))
		}
	}()

	err := t(ctx)
	if err != nil {
		*errs = append(*errs, err)
	}
}
