package frap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/frap/internal/stream"
)

func identity[T any](in *stream.Stream[T]) *stream.Stream[T] { return in }

func TestDeclare_Names(t *testing.T) {
	reg := NewRegistry()
	a, err := Declare(reg, "a", identity[int])
	require.NoError(t, err)
	b, err := DeclareSource(reg, "b", func() *stream.Stream[string] { return stream.Of("x") })
	require.NoError(t, err)

	assert.Equal(t, "a", a.Name())
	assert.Equal(t, "b", b.Name())
	assert.Equal(t, []string{"a", "b"}, reg.Names())
	assert.Equal(t, 2, reg.Len())
}

func TestDeclare_Errors(t *testing.T) {
	reg := NewRegistry()

	_, err := Declare(reg, "", identity[int])
	assert.ErrorIs(t, err, ErrInvalidDriverName)

	_, err = Declare[int, int](reg, "nil", nil)
	assert.ErrorIs(t, err, ErrNilDriver)

	_, err = DeclareSource[int](reg, "nil-source", nil)
	assert.ErrorIs(t, err, ErrNilDriver)

	_, err = Declare(reg, "dup", identity[int])
	require.NoError(t, err)
	_, err = Declare(reg, "dup", identity[string])
	assert.ErrorIs(t, err, ErrDuplicateDriver)
	_, err = DeclareSource(reg, "dup", func() *stream.Stream[int] { return nil })
	assert.ErrorIs(t, err, ErrDuplicateDriver)

	assert.Equal(t, []string{"dup"}, reg.Names(), "failed declarations are not registered")
}

func TestMustDeclare_Panics(t *testing.T) {
	reg := NewRegistry()
	MustDeclare(reg, "a", identity[int])

	assert.Panics(t, func() { MustDeclare(reg, "a", identity[int]) })
	assert.Panics(t, func() { MustDeclareSource[int](reg, "", func() *stream.Stream[int] { return nil }) })
}

func TestCreateProxies_OnePerDriverInOrder(t *testing.T) {
	reg := NewRegistry()
	MustDeclare(reg, "first", identity[int])
	MustDeclareSource(reg, "second", func() *stream.Stream[int] { return nil })
	MustDeclare(reg, "third", identity[string])

	slots := createProxies(reg)
	require.Len(t, slots, 3)
	for i, name := range []string{"first", "second", "third"} {
		assert.Equal(t, name, slots[i].decl.name)
		assert.False(t, slots[i].bound(), "proxies start unbound")
	}

	again := createProxies(reg)
	assert.NotSame(t, slots[0], again[0], "every run allocates its own proxies")
}

func TestCallDrivers_InvokesEachOnceInOrder(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	MustDeclare(reg, "a", func(in *stream.Stream[int]) *stream.Stream[int] {
		calls = append(calls, "a")
		return in
	})
	MustDeclareSource(reg, "b", func() *stream.Stream[string] {
		calls = append(calls, "b")
		return nil
	})

	results := callDrivers(createProxies(reg))

	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, 2, results.Len())
}

func TestFrom_NilResultBecomesNever(t *testing.T) {
	reg := NewRegistry()
	src := MustDeclareSource(reg, "quiet", func() *stream.Stream[int] { return nil })

	results := callDrivers(createProxies(reg))
	s := src.From(results)
	require.NotNil(t, s)

	var got []int
	s.Listen(func(v int) { got = append(got, v) })
	assert.Empty(t, got)
	assert.False(t, s.Done())
}

func TestFrom_ForeignHandleFails(t *testing.T) {
	other := NewRegistry()
	foreign := MustDeclare(other, "x", identity[int])

	results := callDrivers(createProxies(NewRegistry()))

	var err error
	foreign.From(results).Subscribe(stream.Observer[int]{Error: func(e error) { err = e }})
	assert.ErrorIs(t, err, ErrUnknownDriver)

	var zero Driver[int, int]
	zero.From(results).Subscribe(stream.Observer[int]{Error: func(e error) { err = e }})
	assert.ErrorIs(t, err, ErrUnknownDriver)
	assert.Equal(t, "", zero.Name())
}
