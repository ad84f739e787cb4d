package scheduler

import (
	"context"
	"time"
)

// Operation performs one upstream call.
//
// The context carries the per call timeout and is canceled when the scheduler
// is closed.
type Operation func(ctx context.Context) (any, error)

// Well known priorities. Any int is accepted, higher first.
const (
	PriorityLow  = 0
	PriorityHigh = 1
)

// State is the lifecycle stage of a Request.
type State int

const (
	Pending     State = iota // waiting in the queue
	Dispatched               // its operation is running
	RateLimited              // backing off before going back to the front of the queue
	Succeeded
	Failed
	Canceled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Dispatched:
		return "dispatched"
	case RateLimited:
		return "rate-limited"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Canceled:
		return "canceled"
	}
	return "unknown"
}

// Done reports whether s is terminal.
func (s State) Done() bool { return s >= Succeeded }

// Request is a unit of work queued in a Scheduler.
type Request struct {
	ID         string
	Priority   int
	EnqueuedAt time.Time

	op       Operation
	s        *Scheduler
	seq      int64
	index    int // position in the queue, -1 when not queued
	state    State
	attempts int

	done  chan struct{}
	value any
	err   error
}

// State returns the current lifecycle stage of r.
func (r *Request) State() State {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.state
}

// Attempts returns how many times the operation was dispatched.
func (r *Request) Attempts() int {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.attempts
}

// Done is closed once r reached a terminal state.
func (r *Request) Done() <-chan struct{} { return r.done }

// Wait blocks until r settles and returns the operation's result.
//
// If ctx ends first, r is canceled when it was not dispatched yet, and the
// context error is returned.
func (r *Request) Wait(ctx context.Context) (any, error) {
	select {
	case <-r.done:
		return r.value, r.err
	case <-ctx.Done():
		if r.Cancel() {
			return nil, ctx.Err()
		}
		// already running: its outcome is imminent and more accurate.
		<-r.done
		return r.value, r.err
	}
}

// Cancel withdraws r if its operation is not currently running.
// It reports whether r was canceled.
func (r *Request) Cancel() bool {
	return r.s.cancel(r)
}
