package demo

import (
	"fmt"
	"strings"

	"github.com/roach88/frap/internal/frap"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

// View lines understood by the toggle app.
const (
	DidClickButton = "did_click_button"
	FetchUserAgent = "fetch_user_agent"
)

// HostRequest is an instruction for the host driver.
type HostRequest struct {
	Kind string
}

// HostDriver answers fetch_user_agent requests with the configured user
// agent. All access to the host environment happens here, never in main.
func HostDriver(userAgent string) frap.DriverFunc[HostRequest, string] {
	return func(requests *stream.Stream[HostRequest]) *stream.Stream[string] {
		fetches := stream.Filter(requests, func(r HostRequest) bool { return r.Kind == FetchUserAgent })
		return stream.MapTo(fetches, userAgent)
	}
}

// Toggle flips a button on clicks, asks the host driver for the user agent
// on request, and derives usingMac from the user agent held in state.
func Toggle(env Env) App {
	reg := frap.NewRegistry()
	host := frap.MustDeclare(reg, "host", HostDriver(env.UserAgent))

	var ticker frap.Source[int]
	if env.GreetEvery > 0 && env.Ticks != nil {
		ticker = frap.MustDeclareSource(reg, "ticker", func() *stream.Stream[int] {
			return stream.Take(stream.Periodic(env.Ticks, env.GreetEvery), env.Greetings)
		})
	}

	main := func(src frap.Sources[string]) (frap.Sinks, error) {
		clicks := stream.Filter(src.View, func(v string) bool { return v == DidClickButton })
		toggles := stream.SampleCombine(clicks, src.State, func(_ string, s state.Record) state.Record {
			next := "on"
			if s["toggledButton"] == "on" {
				next = "off"
			}
			return state.Record{"toggledButton": next}
		})

		agents := stream.Map(host.From(src.Drivers), func(ua string) state.Record {
			return state.Record{"userAgent": ua}
		})

		userAgents := stream.Map(src.State, func(s state.Record) any { return s["userAgent"] })
		derived := stream.Map(
			stream.Filter(stream.Filter(userAgents, state.Dedupe[any]()), func(v any) bool {
				ua, ok := v.(string)
				return ok && ua != ""
			}),
			func(v any) state.Record {
				return state.Record{"usingMac": isUsingMac(v.(string))}
			},
		)

		updates := []*stream.Stream[state.Record]{toggles, agents, derived}
		if ticker.Name() != "" {
			updates = append(updates, greetings(ticker.From(src.Drivers)))
		}

		requests := stream.Map(
			stream.Filter(src.View, func(v string) bool { return v == FetchUserAgent }),
			func(v string) HostRequest { return HostRequest{Kind: v} },
		)

		return frap.Sinks{
			Updates:  stream.Merge(updates...),
			Requests: []frap.Request{host.Request(requests)},
		}, nil
	}

	return newApp("toggle", "button toggle with a host driver and a derived field",
		state.Record{"toggledButton": "off"}, reg, main)
}

func greetings(ticks *stream.Stream[int]) *stream.Stream[state.Record] {
	return stream.Map(ticks, func(n int) state.Record {
		return state.Record{"greeting": fmt.Sprintf("Hello %d!", n)}
	})
}

func isUsingMac(userAgent string) bool {
	return strings.Contains(strings.ToLower(userAgent), "mac")
}
