package frap

import (
	"context"
	"log/slog"

	"github.com/roach88/frap/internal/engine"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

// debugTap logs updates and snapshots of one run. A nil *debugTap is a
// no-op, which is what runs without WithDebug get.
type debugTap struct {
	logger *slog.Logger
	level  slog.Level
	sched  *engine.Scheduler
	seq    int
}

func newDebugTap(c *config, runID string) *debugTap {
	if !c.debug {
		return nil
	}
	return &debugTap{
		logger: c.logger.With("run_id", runID),
		level:  tapLevel(c.logger),
		sched:  c.scheduler,
	}
}

func (d *debugTap) updates(s *stream.Stream[state.Record]) *stream.Stream[state.Record] {
	if d == nil {
		return s
	}
	return stream.Tap(s, func(patch state.Record) {
		d.logger.LogAttrs(context.Background(), d.level, "update",
			slog.Int64("tick", d.sched.Now()),
			slog.String("patch", patch.String()),
		)
	})
}

func (d *debugTap) states(s *stream.Stream[state.Record]) *stream.Stream[state.Record] {
	if d == nil {
		return s
	}
	return stream.Remember(stream.Tap(s, func(snapshot state.Record) {
		d.logger.LogAttrs(context.Background(), d.level, "state",
			slog.Int64("tick", d.sched.Now()),
			slog.Int("seq", d.seq),
			slog.String("state", snapshot.String()),
		)
		d.seq++
	}))
}

// tapLevel is Debug when the logger emits Debug records and Info
// otherwise, so WithDebug(true) is never silenced by the default handler.
func tapLevel(l *slog.Logger) slog.Level {
	if l.Enabled(context.Background(), slog.LevelDebug) {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
