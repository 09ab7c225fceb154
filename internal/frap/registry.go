package frap

import (
	"fmt"

	"github.com/roach88/frap/internal/stream"
)

// DriverFunc is an effect boundary: it turns the stream of requests Main
// sends to it into a stream of results fed back to Main.
//
// A driver is invoked once per run, before Main, with the sink proxy for
// its name. The proxy carries nothing until the cycle is closed.
type DriverFunc[Req, Res any] func(requests *stream.Stream[Req]) *stream.Stream[Res]

// SourceFunc is a driver that takes no requests and only produces results.
type SourceFunc[Res any] func() *stream.Stream[Res]

// Registry is the static declaration of an application's drivers.
//
// Drivers are declared through the generic functions Declare and
// DeclareSource, which return typed handles. Main uses the handles to read
// results and to build requests, so a name or type mismatch between a
// driver and its use fails to compile instead of failing at run time.
//
// A Registry is a declaration, not a run. Every run allocates fresh
// proxies and invokes every driver again.
type Registry struct {
	decls  []*declaration
	byName map[string]*declaration
}

// declaration is one registered driver. start allocates the per-run sink
// proxy and returns the slot that owns it.
type declaration struct {
	name    string
	nullary bool
	start   func() *slot
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*declaration)}
}

// Names returns the driver names in declaration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.decls))
	for i, d := range r.decls {
		names[i] = d.name
	}
	return names
}

// Len returns the number of declared drivers.
func (r *Registry) Len() int {
	return len(r.decls)
}

func (r *Registry) add(d *declaration) error {
	if d.name == "" {
		return ErrInvalidDriverName
	}
	if _, exists := r.byName[d.name]; exists {
		return fmt.Errorf("declare %q: %w", d.name, ErrDuplicateDriver)
	}
	r.decls = append(r.decls, d)
	r.byName[d.name] = d
	return nil
}

// Driver is the typed handle of a declared request/result driver.
type Driver[Req, Res any] struct {
	decl *declaration
}

// Declare registers a driver under name.
func Declare[Req, Res any](r *Registry, name string, fn DriverFunc[Req, Res]) (Driver[Req, Res], error) {
	if fn == nil {
		return Driver[Req, Res]{}, fmt.Errorf("declare %q: %w", name, ErrNilDriver)
	}

	d := &declaration{name: name}
	d.start = func() *slot {
		proxy := stream.NewProxy[Req]()
		return &slot{
			decl:    d,
			bound:   proxy.Bound,
			invoke:  func() any { return orNever(fn(proxy.Stream)) },
			prepare: prepareTyped(proxy),
		}
	}

	if err := r.add(d); err != nil {
		return Driver[Req, Res]{}, err
	}
	return Driver[Req, Res]{decl: d}, nil
}

// MustDeclare is Declare that panics on error. For package-level app
// definitions whose declarations are fixed.
func MustDeclare[Req, Res any](r *Registry, name string, fn DriverFunc[Req, Res]) Driver[Req, Res] {
	d, err := Declare(r, name, fn)
	if err != nil {
		panic(err)
	}
	return d
}

// Name returns the name the driver was declared under.
func (d Driver[Req, Res]) Name() string {
	if d.decl == nil {
		return ""
	}
	return d.decl.name
}

// From returns the driver's result stream for the current run.
// A handle from another registry yields a stream failing with
// ErrUnknownDriver.
func (d Driver[Req, Res]) From(results Results) *stream.Stream[Res] {
	return resultOf[Res](results, d.decl)
}

// Request wraps s as the request stream for this driver. A nil s is
// the same as not sending any request: the proxy stays unbound.
func (d Driver[Req, Res]) Request(s *stream.Stream[Req]) Request {
	r := Request{decl: d.decl}
	if s != nil {
		r.target = s
	}
	return r
}

// Source is the typed handle of a declared nullary driver.
type Source[Res any] struct {
	decl *declaration
}

// DeclareSource registers a nullary driver under name. It still gets a
// sink proxy, which is never bound because a Source cannot be requested.
func DeclareSource[Res any](r *Registry, name string, fn SourceFunc[Res]) (Source[Res], error) {
	if fn == nil {
		return Source[Res]{}, fmt.Errorf("declare %q: %w", name, ErrNilDriver)
	}

	d := &declaration{name: name, nullary: true}
	d.start = func() *slot {
		proxy := stream.NewProxy[struct{}]()
		return &slot{
			decl:    d,
			bound:   proxy.Bound,
			invoke:  func() any { return orNever(fn()) },
			prepare: prepareTyped(proxy),
		}
	}

	if err := r.add(d); err != nil {
		return Source[Res]{}, err
	}
	return Source[Res]{decl: d}, nil
}

// MustDeclareSource is DeclareSource that panics on error.
func MustDeclareSource[Res any](r *Registry, name string, fn SourceFunc[Res]) Source[Res] {
	s, err := DeclareSource(r, name, fn)
	if err != nil {
		panic(err)
	}
	return s
}

// Name returns the name the source was declared under.
func (s Source[Res]) Name() string {
	if s.decl == nil {
		return ""
	}
	return s.decl.name
}

// From returns the source's result stream for the current run.
func (s Source[Res]) From(results Results) *stream.Stream[Res] {
	return resultOf[Res](results, s.decl)
}

func orNever[T any](s *stream.Stream[T]) *stream.Stream[T] {
	if s == nil {
		return stream.Never[T]()
	}
	return s
}
