// Package scheduler serializes calls to a rate limited upstream API.
//
// A Scheduler owns a priority queue and a single worker goroutine. The worker
// dispatches one operation at a time, highest priority first, while keeping
// the number of dispatches in any trailing window under a budget. Operations
// failing with a rate-limit error are retried after the provider's Retry-After
// hint; any other failure is returned to the caller untouched.
package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/etnz/marketgate"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrClosed    = errors.New("scheduler closed")
	ErrQueueFull = errors.New("scheduler queue is full")
	ErrCanceled  = errors.New("request canceled")
)

// Outcome labels a finished dispatch for observers.
type Outcome string

const (
	OutcomeSuccess     Outcome = "success"
	OutcomeRateLimited Outcome = "rate_limited"
	OutcomeFailure     Outcome = "failure"
)

// Observer receives scheduler events, typically to export metrics.
type Observer interface {
	Dispatched(name string, priority int, outcome Outcome, elapsed time.Duration)
	Throttled(name string, wait time.Duration)
	RateLimited(name string, wait time.Duration)
	QueueLength(name string, n int)
}

type noopObserver struct{}

func (noopObserver) Dispatched(string, int, Outcome, time.Duration) {}
func (noopObserver) Throttled(string, time.Duration)                {}
func (noopObserver) RateLimited(string, time.Duration)              {}
func (noopObserver) QueueLength(string, int)                        {}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger, defaults to the logrus standard logger.
func WithLogger(l log.FieldLogger) Option {
	return func(s *Scheduler) { s.log = l }
}

// WithObserver registers o to receive the scheduler events.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.obs = o
		}
	}
}

// Stats is a point in time view of a Scheduler.
type Stats struct {
	Name string `json:"name"`
	// QueueLength counts requests waiting to be dispatched.
	QueueLength int `json:"queueLength"`
	// RequestCount counts dispatches in the current window.
	RequestCount int `json:"requestCount"`
	MaxRequests  int `json:"maxRequests"`
}

// Scheduler dispatches operations one at a time under a rate budget.
type Scheduler struct {
	cfg Config
	log log.FieldLogger
	obs Observer

	mu     sync.Mutex
	queue  queue
	next   int64       // sequence for fresh requests
	front  int64       // sequence for requests put back at the front
	issued []time.Time // dispatch times within the window, oldest first
	closed bool

	wake chan struct{}
	ctx  context.Context
	stop context.CancelFunc
	done chan struct{}
}

// New validates cfg and starts a Scheduler. Call Close to stop it.
func New(cfg Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Scheduler{
		cfg:  cfg,
		obs:  noopObserver{},
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	s.log = log.StandardLogger()
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("scheduler", cfg.Name)

	s.ctx, s.stop = context.WithCancel(context.Background())
	go s.run()
	return s, nil
}

// Name returns the configured name.
func (s *Scheduler) Name() string { return s.cfg.Name }

// Enqueue queues op with the given priority and returns immediately.
//
// When the queue is capped and full, the lowest priority oldest request is
// shed with ErrQueueFull if it has a lower priority than op; otherwise op
// itself is refused with ErrQueueFull.
func (s *Scheduler) Enqueue(op Operation, priority int) (*Request, error) {
	r := &Request{
		ID:         uuid.NewString(),
		Priority:   priority,
		EnqueuedAt: time.Now(),
		op:         op,
		s:          s,
		index:      -1,
		done:       make(chan struct{}),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	if s.cfg.MaxPending > 0 && s.queue.Len() >= s.cfg.MaxPending {
		v := s.queue.victim()
		if v == nil || v.Priority >= priority {
			s.mu.Unlock()
			return nil, ErrQueueFull
		}
		heap.Remove(&s.queue, v.index)
		s.settleLocked(v, Failed, nil, ErrQueueFull)
		s.log.WithField("request", v.ID).Warnf("shed request with priority %d", v.Priority)
	}
	r.seq = s.next
	s.next++
	heap.Push(&s.queue, r)
	n := s.queue.Len()
	s.mu.Unlock()

	s.obs.QueueLength(s.cfg.Name, n)
	s.signal()
	return r, nil
}

// Submit queues op and waits for its result.
func (s *Scheduler) Submit(ctx context.Context, op Operation, priority int) (any, error) {
	r, err := s.Enqueue(op, priority)
	if err != nil {
		return nil, err
	}
	return r.Wait(ctx)
}

// Do is a typed Submit.
func Do[T any](ctx context.Context, s *Scheduler, priority int, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := s.Submit(ctx, func(ctx context.Context) (any, error) { return op(ctx) }, priority)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("scheduler: unexpected result type %T", v)
	}
	return t, nil
}

// Stats returns the current queue length and window usage.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(time.Now())
	return Stats{
		Name:         s.cfg.Name,
		QueueLength:  s.queue.Len(),
		RequestCount: len(s.issued),
		MaxRequests:  s.cfg.MaxRequests,
	}
}

// Close stops the worker. The running operation sees its context canceled and
// every request still queued fails with ErrClosed.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.stop()
	<-s.done

	s.mu.Lock()
	for s.queue.Len() > 0 {
		r := heap.Pop(&s.queue).(*Request)
		s.settleLocked(r, Failed, nil, ErrClosed)
	}
	s.mu.Unlock()
	s.obs.QueueLength(s.cfg.Name, 0)
	return nil
}

func (s *Scheduler) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// sleep waits for d or until the scheduler is closed, and reports whether the
// full duration elapsed.
func (s *Scheduler) sleep(d time.Duration) bool {
	if d <= 0 {
		return s.ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-s.ctx.Done():
		return false
	}
}

func (s *Scheduler) run() {
	defer close(s.done)
	for {
		r := s.admit()
		if r == nil {
			return
		}
		s.dispatch(r)
		// the pause runs from the end of the operation, whatever its outcome.
		if !s.sleep(s.cfg.Spacing) {
			return
		}
	}
}

// admit blocks until a request may be dispatched and returns it, already
// accounted in the window. It returns nil once the scheduler is closed.
func (s *Scheduler) admit() *Request {
	for {
		s.mu.Lock()
		empty := s.queue.Len() == 0
		s.mu.Unlock()
		if empty {
			select {
			case <-s.wake:
				continue
			case <-s.ctx.Done():
				return nil
			}
		}

		s.mu.Lock()
		if s.queue.Len() == 0 {
			// everything got canceled in the meantime.
			s.mu.Unlock()
			continue
		}
		now := time.Now()
		s.pruneLocked(now)
		if s.cfg.MaxRequests > 0 && len(s.issued) >= s.cfg.MaxRequests {
			wait := s.cfg.Window - now.Sub(s.issued[0])
			s.mu.Unlock()
			s.log.Debugf("window budget of %d exhausted, waiting %v", s.cfg.MaxRequests, wait)
			s.obs.Throttled(s.cfg.Name, wait)
			if !s.sleep(wait) {
				return nil
			}
			continue
		}
		r := heap.Pop(&s.queue).(*Request)
		r.state = Dispatched
		r.attempts++
		s.issued = append(s.issued, now)
		n := s.queue.Len()
		s.mu.Unlock()

		s.obs.QueueLength(s.cfg.Name, n)
		return r
	}
}

// pruneLocked drops the dispatch times that left the window.
func (s *Scheduler) pruneLocked(now time.Time) {
	i := 0
	for i < len(s.issued) && now.Sub(s.issued[i]) >= s.cfg.Window {
		i++
	}
	if i > 0 {
		s.issued = append(s.issued[:0], s.issued[i:]...)
	}
}

func (s *Scheduler) dispatch(r *Request) {
	ctx, cancel := s.ctx, context.CancelFunc(func() {})
	if s.cfg.Timeout > 0 {
		ctx, cancel = context.WithTimeout(s.ctx, s.cfg.Timeout)
	}
	logger := s.log.WithField("request", r.ID)
	start := time.Now()
	value, err := r.op(ctx)
	cancel()
	elapsed := time.Since(start)

	if rl, ok := marketgate.IsRateLimited(err); ok {
		wait := rl.RetryAfter
		if wait <= 0 {
			wait = s.cfg.DefaultRetryAfter
		}
		s.obs.Dispatched(s.cfg.Name, r.Priority, OutcomeRateLimited, elapsed)
		s.obs.RateLimited(s.cfg.Name, wait)
		logger.Warnf("rate limited by upstream, retrying in %v", wait)

		s.mu.Lock()
		r.state = RateLimited
		s.mu.Unlock()

		if !s.sleep(wait) {
			s.mu.Lock()
			s.settleLocked(r, Failed, nil, ErrClosed)
			s.mu.Unlock()
			return
		}
		s.requeue(r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.obs.Dispatched(s.cfg.Name, r.Priority, OutcomeFailure, elapsed)
		logger.Debugf("request failed after %v: %v", elapsed, err)
		s.settleLocked(r, Failed, nil, err)
		return
	}
	s.obs.Dispatched(s.cfg.Name, r.Priority, OutcomeSuccess, elapsed)
	logger.Debugf("request succeeded in %v", elapsed)
	s.settleLocked(r, Succeeded, value, nil)
}

// requeue puts a rate limited request back at the front of its priority.
func (s *Scheduler) requeue(r *Request) {
	s.mu.Lock()
	if r.state != RateLimited {
		// canceled while backing off.
		s.mu.Unlock()
		return
	}
	if s.closed {
		s.settleLocked(r, Failed, nil, ErrClosed)
		s.mu.Unlock()
		return
	}
	s.front--
	r.seq = s.front
	r.state = Pending
	heap.Push(&s.queue, r)
	n := s.queue.Len()
	s.mu.Unlock()
	s.obs.QueueLength(s.cfg.Name, n)
}

func (s *Scheduler) cancel(r *Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch r.state {
	case Pending:
		if r.index >= 0 {
			heap.Remove(&s.queue, r.index)
		}
	case RateLimited:
	default:
		return false
	}
	s.settleLocked(r, Canceled, nil, ErrCanceled)
	return true
}

func (s *Scheduler) settleLocked(r *Request, state State, value any, err error) {
	if r.state.Done() {
		return
	}
	r.state = state
	r.value = value
	r.err = err
	close(r.done)
}
