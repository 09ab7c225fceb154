package demo

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/frap/internal/engine"
	"github.com/roach88/frap/internal/frap"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
	"github.com/roach88/frap/internal/testutil"
)

// drive starts app and feeds the view lines one at a time, letting the
// graph settle after each, the way a user interacts with it.
func drive(t *testing.T, app App, initial state.Record, lines ...string) (*frap.App, *testutil.Recorder[state.Record]) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	sched := engine.New(engine.WithLogger(logger), engine.WithMaxSteps(1000))
	view := stream.Create[string]()

	run, err := app.Start(initial, view,
		frap.WithScheduler(sched),
		frap.WithLogger(logger),
		frap.WithRunIDGenerator(testutil.NewFixedRunIDGenerator("demo")),
	)
	require.NoError(t, err)

	rec := testutil.Record(run.State)
	for _, line := range lines {
		line := line
		sched.Schedule(func() { view.Push(line) })
		require.NoError(t, sched.Drain())
	}
	return run, rec
}

func TestEcho(t *testing.T) {
	_, rec := drive(t, Echo(), nil, "world")

	assert.Equal(t, []state.Record{{"foo": "hello"}, {"foo": "world"}}, rec.Values)
}

func TestEcho_CustomInitial(t *testing.T) {
	_, rec := drive(t, Echo(), state.Record{"foo": "a", "keep": true}, "b")

	assert.Equal(t, []state.Record{
		{"foo": "a", "keep": true},
		{"foo": "b", "keep": true},
	}, rec.Values)
}

func TestToggle_ClicksFlipButton(t *testing.T) {
	_, rec := drive(t, Toggle(DefaultEnv()), nil, DidClickButton, DidClickButton, "noise")

	require.Len(t, rec.Values, 3)
	assert.Equal(t, "off", rec.Values[0]["toggledButton"])
	assert.Equal(t, "on", rec.Values[1]["toggledButton"])
	assert.Equal(t, "off", rec.Values[2]["toggledButton"])
}

func TestToggle_FetchUserAgentDerivesUsingMac(t *testing.T) {
	run, rec := drive(t, Toggle(DefaultEnv()), nil, FetchUserAgent, DidClickButton)

	assert.True(t, run.Bound("host"))
	ua := "frap/1.0 (Macintosh; Go)"
	assert.Equal(t, []state.Record{
		{"toggledButton": "off"},
		{"toggledButton": "off", "userAgent": ua},
		{"toggledButton": "off", "userAgent": ua, "usingMac": true},
		{"toggledButton": "on", "userAgent": ua, "usingMac": true},
	}, rec.Values)
}

func TestToggle_DerivedFieldIsDeduplicated(t *testing.T) {
	env := Env{UserAgent: "Linux"}
	_, rec := drive(t, Toggle(env), nil, FetchUserAgent, FetchUserAgent)

	final, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, false, final["usingMac"])

	derived := 0
	for i := 1; i < len(rec.Values); i++ {
		if _, had := rec.Values[i-1]["usingMac"]; !had {
			if _, has := rec.Values[i]["usingMac"]; has {
				derived++
			}
		}
	}
	assert.Equal(t, 1, derived)
	// initial, agent, usingMac, agent again (same value still emits a snapshot)
	assert.Len(t, rec.Values, 4)
}

func TestToggle_NoTickerWithoutScheduler(t *testing.T) {
	env := DefaultEnv()
	env.GreetEvery = 1
	assert.Equal(t, []string{"host"}, Toggle(env).Drivers)
}

func TestPingPong_RallySettles(t *testing.T) {
	run, rec := drive(t, PingPong(), nil, "2")

	assert.True(t, run.Bound("ping"))
	assert.True(t, run.Bound("pong"))
	assert.Equal(t, []state.Record{
		{"hits": 0},
		{"last": "ping", "ball": 2, "hits": 1},
		{"last": "pong", "ball": 1, "hits": 1},
		{"last": "ping", "ball": 1, "hits": 2},
		{"last": "pong", "ball": 0, "hits": 2},
	}, rec.Values)
}

func TestPingPong_BadServe(t *testing.T) {
	_, rec := drive(t, PingPong(), nil, "nope")

	final, _ := rec.Last()
	assert.Equal(t, `bad serve "nope"`, final["lastError"])
}

func TestPingPong_HitsFromLoadedState(t *testing.T) {
	_, rec := drive(t, PingPong(), state.Record{"hits": int64(10)}, "0")

	final, _ := rec.Last()
	assert.Equal(t, 11, final["hits"])
}

func TestCatalog(t *testing.T) {
	apps := Catalog(DefaultEnv())

	var names []string
	for _, app := range apps {
		names = append(names, app.Name)
		assert.NotEmpty(t, app.Description)
		assert.NotNil(t, app.Initial)
	}
	assert.Equal(t, []string{"echo", "pingpong", "toggle"}, names)
}

func TestLookup(t *testing.T) {
	app, err := Lookup("pingpong", DefaultEnv())
	require.NoError(t, err)
	assert.Equal(t, []string{"ping", "pong"}, app.Drivers)

	_, err = Lookup("missing", DefaultEnv())
	assert.ErrorIs(t, err, ErrUnknownApp)
}
