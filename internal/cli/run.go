package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/frap/internal/demo"
	"github.com/roach88/frap/internal/engine"
	"github.com/roach88/frap/internal/frap"
	"github.com/roach88/frap/internal/state"
	"github.com/roach88/frap/internal/store"
	"github.com/roach88/frap/internal/stream"
)

// DefaultMaxSteps is the run command's turn budget.
const DefaultMaxSteps = 100000

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	View        string
	State       string
	Database    string
	Debug       bool
	MetricsAddr string
	MaxSteps    int
	GreetEvery  time.Duration

	// RunIDGenerator allows overriding the run id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDGenerator engine.RunIDGenerator
}

// RunResult is the JSON payload of the run command.
type RunResult struct {
	RunID  string            `json:"run_id"`
	App    string            `json:"app"`
	States []json.RawMessage `json:"states"`
	Steps  int               `json:"steps"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <app>",
		Short: "Run a demo application",
		Long: `Run a demo application on the single-writer scheduler.

View events are read one per line from --view or stdin. Every state
snapshot is printed as canonical JSON. The run ends when the input is
exhausted and the graph has settled, or on Ctrl-C.

Exit codes:
  0 - Run settled
  1 - Run failed (main error, stream error, quota exceeded)
  2 - Command error (unknown app, unreadable state file, etc.)

Examples:
  echo world | frap run echo
  frap run pingpong --view serves.txt --db ./frap.db
  frap run toggle --state state.cue --debug --metrics-addr :9090`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApp(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.View, "view", "", "file of view events, one per line (default stdin)")
	cmd.Flags().StringVar(&opts.State, "state", "", "initial state file (.cue, .yaml, .json)")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite journal to record the run into")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "log every update and snapshot")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", DefaultMaxSteps, "scheduler turn budget (0 = unlimited)")
	cmd.Flags().DurationVar(&opts.GreetEvery, "greet-every", 0, "toggle app: greeting period (0 = off)")

	return cmd
}

func runApp(opts *RunOptions, name string, cmd *cobra.Command) error {
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose || opts.Debug)
	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	input, closeInput, err := openView(opts.View, cmd.InOrStdin())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open view input", err)
	}
	defer closeInput()

	var initial state.Record
	if opts.State != "" {
		initial, err = state.LoadFile(opts.State)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load state", err)
		}
	}

	schedOpts := []engine.Option{engine.WithLogger(logger), engine.WithMaxSteps(opts.MaxSteps)}
	var metrics *engine.Metrics
	if opts.MetricsAddr != "" {
		metrics, err = engine.NewMetrics(engine.DefaultMetricsNamespace)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to create metrics", err)
		}
		schedOpts = append(schedOpts, engine.WithMetrics(metrics))
	}
	sched := engine.New(schedOpts...)

	env := demo.DefaultEnv()
	if opts.GreetEvery > 0 {
		env.GreetEvery = opts.GreetEvery
		env.Ticks = sched
	}
	app, err := demo.Lookup(name, env)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to look up app", err)
	}
	if initial == nil {
		initial = app.Initial
	}

	runIDs := opts.RunIDGenerator
	if runIDs == nil {
		runIDs = engine.UUIDv7Generator{}
	}

	view := stream.Create[string]()
	run, err := app.Start(initial, view,
		frap.WithScheduler(sched),
		frap.WithLogger(logger),
		frap.WithDebug(opts.Debug),
		frap.WithRunIDGenerator(runIDs),
	)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start app", err)
	}
	logger = logger.With("run_id", run.ID)

	// Setup signal handling for graceful shutdown
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	var (
		st      *store.Store
		journal *store.Journal
	)
	if opts.Database != "" {
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()

		if err := st.WriteRun(ctx, store.Run{ID: run.ID, App: app.Name, Initial: initial}); err != nil {
			return WrapExitError(ExitCommandError, "failed to record run", err)
		}
		// Snapshots still flush while a signal winds the run down.
		journal = st.Record(context.WithoutCancel(ctx), run.ID, run.State, sched.Now)
	}

	printer := newStatePrinter(out)
	sub := run.State.Subscribe(stream.Observer[state.Record]{
		Next:  printer.next,
		Error: printer.fail,
	})

	if metrics != nil {
		srv := serveMetrics(opts.MetricsAddr, metrics, logger)
		defer shutdownServer(srv, logger)
	}

	logger.Info("run starting", "app", app.Name, "drivers", len(app.Drivers))
	go feedView(input, view, sched, logger)

	runErr := sched.Run(ctx)
	if errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded) {
		runErr = nil
	}
	sub.Unsubscribe()

	failure := runErr
	if failure == nil {
		failure = printer.err
	}

	if journal != nil {
		if err := journal.Close(); err != nil {
			logger.Error("journal write failed", "error", err)
			if failure == nil {
				return WrapExitError(ExitFailure, "failed to journal run", err)
			}
		}
		if failure != nil {
			if err := st.FinishRun(context.WithoutCancel(ctx), run.ID, failure.Error()); err != nil {
				logger.Error("failed to record run error", "error", err)
			}
		}
	}

	logger.Info("run finished",
		"app", app.Name,
		"snapshots", len(printer.states),
		"steps", sched.Steps(),
	)

	if out.JSON() {
		resp := CLIResponse{
			Status: "ok",
			RunID:  run.ID,
			Data: RunResult{
				RunID:  run.ID,
				App:    app.Name,
				States: printer.states,
				Steps:  sched.Steps(),
			},
		}
		if failure != nil {
			resp.Status = "error"
			resp.Error = &CLIError{Code: "E_RUN", Message: failure.Error()}
		}
		if err := out.Respond(resp); err != nil {
			return err
		}
	}

	if failure != nil {
		return WrapExitError(ExitFailure, "run failed", failure)
	}
	return nil
}

// statePrinter writes each snapshot as a canonical JSON line in text mode
// and collects them for the JSON response. It runs on the scheduler
// goroutine.
type statePrinter struct {
	out    *OutputFormatter
	states []json.RawMessage
	err    error
}

func newStatePrinter(out *OutputFormatter) *statePrinter {
	return &statePrinter{out: out, states: []json.RawMessage{}}
}

func (p *statePrinter) next(r state.Record) {
	data, err := state.MarshalCanonical(r)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("snapshot %d: %w", len(p.states), err)
		}
		return
	}
	p.states = append(p.states, data)
	if !p.out.JSON() {
		fmt.Fprintln(p.out.Writer, string(data))
	}
}

func (p *statePrinter) fail(err error) {
	if p.err == nil {
		p.err = err
	}
}

// feedView submits one view event per non-blank input line, then asks the
// scheduler to stop once the graph has settled and no timer holds it.
func feedView(r io.Reader, view *stream.Stream[string], sched *engine.Scheduler, logger *slog.Logger) {
	defer sched.Shutdown()

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if err := sched.Submit(func() { view.Push(line) }); err != nil {
			logger.Debug("view event dropped", "error", err)
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Error("failed to read view input", "error", err)
	}
}

func openView(path string, stdin io.Reader) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func serveMetrics(addr string, metrics *engine.Metrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr, "path", "/metrics")
	return srv
}

func shutdownServer(srv *http.Server, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("metrics server shutdown failed", "error", err)
	}
}
