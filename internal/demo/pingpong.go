package demo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/frap/internal/frap"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

// PingPong bounces a ball between two drivers. Each view line serves a
// ball of the given size; pong shrinks it by one and ping returns it until
// it reaches zero. Every hop crosses a feedback edge, so a rally of n
// settles after a bounded number of turns instead of recursing.
func PingPong() App {
	reg := frap.NewRegistry()
	ping := frap.MustDeclare(reg, "ping", func(balls *stream.Stream[int]) *stream.Stream[int] {
		return balls
	})
	pong := frap.MustDeclare(reg, "pong", func(balls *stream.Stream[int]) *stream.Stream[int] {
		return stream.Map(balls, func(n int) int { return n - 1 })
	})

	main := func(src frap.Sources[string]) (frap.Sinks, error) {
		serves := stream.Map(src.View, parseServe)
		valid := stream.Map(
			stream.Filter(serves, func(s serve) bool { return s.err == nil }),
			func(s serve) int { return s.size },
		)
		rejected := stream.Map(
			stream.Filter(serves, func(s serve) bool { return s.err != nil }),
			func(s serve) state.Record { return state.Record{"lastError": s.err.Error()} },
		)

		pings := ping.From(src.Drivers)
		pongs := pong.From(src.Drivers)

		hits := stream.SampleCombine(pings, src.State, func(n int, s state.Record) state.Record {
			return state.Record{"last": "ping", "ball": n, "hits": intField(s, "hits") + 1}
		})
		returns := stream.Map(pongs, func(n int) state.Record {
			return state.Record{"last": "pong", "ball": n}
		})

		return frap.Sinks{
			Updates: stream.Merge(rejected, hits, returns),
			Requests: []frap.Request{
				ping.Request(stream.Merge(valid, stream.Filter(pongs, func(n int) bool { return n > 0 }))),
				pong.Request(pings),
			},
		}, nil
	}

	return newApp("pingpong", "two drivers feeding each other until the ball runs out",
		state.Record{"hits": 0}, reg, main)
}

type serve struct {
	size int
	err  error
}

func parseServe(line string) serve {
	n, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || n < 0 {
		return serve{err: fmt.Errorf("bad serve %q", line)}
	}
	return serve{size: n}
}

// intField reads an integer field that may have been loaded as int or
// int64 (state files) or float64.
func intField(s state.Record, key string) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
