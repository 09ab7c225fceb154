package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Scheduler is the cooperative single-writer task loop that breaks
// synchronous feedback cycles.
//
// Each task runs as exactly one turn and the clock advances once per turn.
// Tasks run in FIFO order, so a task scheduled while turn t executes
// always runs at a turn strictly greater than t. That is the whole
// scheduling contract relied upon by stream.Delay and the cycle closer.
//
// Thread-safety model:
//   - Schedule(), Submit(), Shutdown(), Stop(): safe from any goroutine
//   - Step(), Drain(), Run(): must be driven by exactly ONE goroutine at a time
//
// All stream propagation that happens inside tasks therefore happens on
// that one goroutine, which is what keeps the state accumulator's single
// writer free of locks.
type Scheduler struct {
	queue   *taskQueue
	clock   *Clock
	quota   *QuotaEnforcer
	metrics *Metrics
	logger  *slog.Logger

	shutdown atomic.Bool
	holds    atomic.Int64
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxSteps caps the total number of turns the scheduler executes.
//
// Default: 0 (unlimited). Use a small limit in tests of feedback graphs
// that are expected to loop forever.
func WithMaxSteps(maxSteps int) Option {
	return func(s *Scheduler) {
		s.quota = NewQuotaEnforcer(maxSteps)
	}
}

// WithClock sets the logical clock. Used to continue turn numbering.
func WithClock(c *Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(s *Scheduler) {
		s.metrics = m
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New creates a Scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		queue: newTaskQueue(),
		clock: NewClock(),
		quota: NewQuotaEnforcer(0),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Schedule enqueues a task for a later turn.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the scheduler has been stopped.
func (s *Scheduler) Schedule(t Task) bool {
	if !s.queue.Enqueue(t) {
		s.metrics.recordRejected()
		return false
	}
	s.metrics.recordEnqueue(s.queue.Len())
	return true
}

// Submit is Schedule with an error result, for callers outside the loop
// that want to report a rejected task.
func (s *Scheduler) Submit(t Task) error {
	if !s.Schedule(t) {
		return newStoppedError(s.queue.Len())
	}
	return nil
}

// Step executes at most one task.
// Returns false if the queue was empty.
//
// QUOTA: when the quota is exceeded the dequeued task is dropped and
// *StepsExceededError is returned.
func (s *Scheduler) Step() (bool, error) {
	task, ok := s.queue.TryDequeue()
	if !ok {
		return false, nil
	}

	if err := s.quota.Check(); err != nil {
		s.logger.Error("max steps quota exceeded",
			"steps", s.quota.Current(),
			"limit", s.quota.MaxSteps(),
			"pending", s.queue.Len(),
			"event", "quota_exceeded",
		)
		return true, err
	}

	turn := s.clock.Next()
	s.metrics.recordTask(turn, s.queue.Len())
	task()

	return true, nil
}

// Drain runs tasks on the caller's goroutine until the queue is empty.
// Tasks scheduled while draining are executed too.
//
// This is the deterministic mode used by tests and the harness.
func (s *Scheduler) Drain() error {
	for {
		ran, err := s.Step()
		if err != nil {
			return fmt.Errorf("drain at turn %d: %w", s.clock.Current(), err)
		}
		if !ran {
			return nil
		}
	}
}

// Run starts the single-writer event loop.
// Blocks until the context is cancelled, Stop() is called, or Shutdown()
// was requested and the queue is empty.
//
// CRITICAL: Must be called from exactly ONE goroutine.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Debug("scheduler starting", "turn", s.clock.Current())

	for {
		ran, err := s.Step()
		if err != nil {
			s.queue.Close()
			return fmt.Errorf("quota enforcement failed: %w", err)
		}
		if ran {
			continue
		}

		if s.shutdown.Load() && s.holds.Load() == 0 {
			s.logger.Debug("scheduler stopping: idle after shutdown", "turn", s.clock.Current())
			s.queue.Close()
			return nil
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("scheduler stopping: context cancelled", "turn", s.clock.Current())
			s.queue.Close()
			return ctx.Err()

		case <-s.queue.Wait():
			// The signal channel closes when the queue is closed, which
			// makes this case fire immediately.
			if s.queue.Closed() && s.queue.Len() == 0 {
				s.logger.Debug("scheduler stopping: queue closed", "turn", s.clock.Current())
				return nil
			}
		}
	}
}

// Shutdown asks Run to return once the queue is empty and no hold is
// outstanding. Tasks may still be scheduled until then, so in-flight
// feedback settles before the loop exits.
func (s *Scheduler) Shutdown() {
	s.shutdown.Store(true)
	s.queue.Wake()
}

// Hold registers outstanding work outside the queue, such as a timer that
// will schedule tasks later. While a hold is outstanding Shutdown does not
// end Run. The returned release may be called more than once and from any
// goroutine.
func (s *Scheduler) Hold() (release func()) {
	s.holds.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.holds.Add(-1)
			s.queue.Wake()
		})
	}
}

// Holds returns the number of outstanding holds.
func (s *Scheduler) Holds() int {
	return int(s.holds.Load())
}

// Stop closes the queue. Run returns after the tasks already queued have
// executed; Schedule rejects everything offered afterwards.
func (s *Scheduler) Stop() {
	s.queue.Close()
}

// Now returns the current turn.
func (s *Scheduler) Now() int64 {
	return s.clock.Current()
}

// Pending returns the number of queued tasks.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}

// Steps returns the number of turns counted against the quota.
func (s *Scheduler) Steps() int {
	return s.quota.Current()
}

// Clock returns the scheduler's logical clock.
func (s *Scheduler) Clock() *Clock {
	return s.clock
}
