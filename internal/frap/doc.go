// Package frap wires a pure Main function to a set of named drivers and an
// external view stream, and folds Main's updates into a running state.
//
// Main's inputs and outputs depend on each other: it reads driver results
// and produces the requests those results answer. Run resolves the cycle
// in three steps:
//
//  1. A sink proxy is allocated for every declared driver, and every
//     driver is invoked with its proxy.
//  2. Main is invoked once with the view, the state stream and the driver
//     results.
//  3. Main's request streams are bound onto the proxies, and its update
//     stream onto the state accumulator, each through stream.Delay.
//
// Because of the delay every feedback value arrives at least one
// scheduler turn after it was produced, and a cyclic graph settles
// instead of recursing on one call stack.
//
// Drivers are declared on a Registry and referenced through typed handles:
//
//	reg := frap.NewRegistry()
//	echo := frap.MustDeclare(reg, "echo", func(in *stream.Stream[string]) *stream.Stream[string] {
//		return in
//	})
//
//	main := func(src frap.Sources[string]) (frap.Sinks, error) {
//		replies := echo.From(src.Drivers)
//		return frap.Sinks{
//			Updates:  stream.Map(replies, func(s string) state.Record { return state.Record{"reply": s} }),
//			Requests: []frap.Request{echo.Request(src.View)},
//		}, nil
//	}
package frap
