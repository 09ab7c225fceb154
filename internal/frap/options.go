package frap

import (
	"log/slog"

	"github.com/roach88/frap/internal/engine"
)

// Option configures a run.
type Option func(*config)

type config struct {
	debug     bool
	logger    *slog.Logger
	scheduler *engine.Scheduler
	runIDs    engine.RunIDGenerator
}

// WithDebug enables the debug tap: every update and every state snapshot
// is logged, at Debug level when the logger emits it and at Info level
// otherwise. It has no effect on propagation.
func WithDebug(enabled bool) Option {
	return func(c *config) {
		c.debug = enabled
	}
}

// WithLogger sets the sink for the debug tap and for run diagnostics.
// Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithScheduler sets the scheduler every feedback edge is delayed through.
// Defaults to a new engine.Scheduler.
func WithScheduler(s *engine.Scheduler) Option {
	return func(c *config) {
		c.scheduler = s
	}
}

// WithRunIDGenerator sets how the run id is chosen.
// Defaults to engine.UUIDv7Generator.
func WithRunIDGenerator(g engine.RunIDGenerator) Option {
	return func(c *config) {
		c.runIDs = g
	}
}

func newConfig(opts []Option) *config {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.scheduler == nil {
		c.scheduler = engine.New(engine.WithLogger(c.logger))
	}
	if c.runIDs == nil {
		c.runIDs = engine.UUIDv7Generator{}
	}
	return c
}
