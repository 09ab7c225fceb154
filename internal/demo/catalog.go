package demo

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/roach88/frap/internal/frap"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/stream"
)

// ErrUnknownApp is returned when no application has the requested name.
var ErrUnknownApp = errors.New("unknown app")

// Env configures the effectful drivers of the demo applications.
type Env struct {
	// UserAgent is what the toggle app's host driver reports.
	UserAgent string

	// GreetEvery enables the toggle app's periodic greeting. Zero disables
	// it, which keeps runs deterministic.
	GreetEvery time.Duration

	// Greetings caps the number of greetings.
	Greetings int

	// Ticks schedules the greeting timer. It must be the scheduler the
	// run is driven by.
	Ticks stream.Scheduler
}

// DefaultEnv is the environment used by the CLI and the harness.
func DefaultEnv() Env {
	return Env{UserAgent: "frap/1.0 (Macintosh; Go)", Greetings: 3}
}

// App is a runnable demo application. View events are text lines.
type App struct {
	Name        string
	Description string

	// Initial is the default starting state.
	Initial state.Record

	// Drivers are the names of the declared drivers.
	Drivers []string

	start func(initial state.Record, view *stream.Stream[string], opts ...frap.Option) (*frap.App, error)
}

// Start wires a run of the app. A nil initial uses App.Initial.
func (a App) Start(initial state.Record, view *stream.Stream[string], opts ...frap.Option) (*frap.App, error) {
	if initial == nil {
		initial = a.Initial
	}
	return a.start(initial, view, opts...)
}

// newApp declares the app's drivers on a fresh registry and binds its main.
func newApp(name, description string, initial state.Record, reg *frap.Registry, main frap.Main[string]) App {
	return App{
		Name:        name,
		Description: description,
		Initial:     initial,
		Drivers:     reg.Names(),
		start: func(init state.Record, view *stream.Stream[string], opts ...frap.Option) (*frap.App, error) {
			return frap.Setup(main, init, reg)(view, opts...)
		},
	}
}

// Catalog returns every demo application, sorted by name.
func Catalog(env Env) []App {
	apps := []App{
		Echo(),
		Toggle(env),
		PingPong(),
	}
	slices.SortFunc(apps, func(a, b App) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return apps
}

// Lookup returns the application with the given name.
func Lookup(name string, env Env) (App, error) {
	for _, app := range Catalog(env) {
		if app.Name == name {
			return app, nil
		}
	}
	return App{}, fmt.Errorf("%w: %q", ErrUnknownApp, name)
}
