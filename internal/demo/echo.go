package demo

import (
	"github.com/roach88/frap/internal/frap"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

// Echo writes every view line into the foo field.
//
// Initial state {foo: "hello"}; the view line "world" yields the snapshots
// {foo: "hello"}, {foo: "world"}.
func Echo() App {
	main := func(src frap.Sources[string]) (frap.Sinks, error) {
		return frap.Sinks{
			Updates: stream.Map(src.View, func(v string) state.Record {
				return state.Record{"foo": v}
			}),
		}, nil
	}

	return newApp("echo", "view lines replace the foo field",
		state.Record{"foo": "hello"}, frap.NewRegistry(), main)
}
