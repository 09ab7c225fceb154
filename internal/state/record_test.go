package state

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMerge_OverwritesPresentKeysOnly(t *testing.T) {
	prev := Record{"a": int64(1), "b": "x"}
	patch := Record{"b": "y", "c": true}

	got := Merge(prev, patch)

	assert.Equal(t, Record{"a": int64(1), "b": "y", "c": true}, got)
	assert.Equal(t, Record{"a": int64(1), "b": "x"}, prev, "prev is not modified")
	assert.Equal(t, Record{"b": "y", "c": true}, patch, "patch is not modified")
}

func TestMerge_NilValueOverwrites(t *testing.T) {
	got := Merge(Record{"a": int64(1)}, Record{"a": nil})

	v, ok := got["a"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestMerge_NilInputs(t *testing.T) {
	assert.Equal(t, Record{}, Merge(nil, nil))
	assert.Equal(t, Record{"a": "b"}, Merge(nil, Record{"a": "b"}))
}

func TestMerge_Idempotent(t *testing.T) {
	s := Record{"a": int64(1), "b": "x"}
	u := Record{"b": "y", "c": int64(3)}

	once := Merge(s, u)
	twice := Merge(once, u)

	assert.Equal(t, once, twice)
}

// randomPatch builds a partial record over a small key space so patches
// overlap often.
func randomPatch(rng *rand.Rand) Record {
	keys := []string{"a", "b", "c", "d", "e"}
	patch := Record{}
	for _, k := range keys {
		if rng.Intn(2) == 0 {
			continue
		}
		switch rng.Intn(3) {
		case 0:
			patch[k] = int64(rng.Intn(100))
		case 1:
			patch[k] = "v" + strconv.Itoa(rng.Intn(100))
		default:
			patch[k] = rng.Intn(2) == 0
		}
	}
	return patch
}

func TestFold_MatchesLeftFoldOfMerge(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 200; i++ {
		initial := randomPatch(rng)
		n := rng.Intn(10)
		patches := make([]Record, n)
		for j := range patches {
			patches[j] = randomPatch(rng)
		}

		want := initial.Clone()
		for _, p := range patches {
			for k, v := range p {
				want[k] = v
			}
		}

		assert.Equal(t, want, Fold(initial, patches...), "iteration %d", i)
	}
}

func TestKeys_CanonicalOrder(t *testing.T) {
	r := Record{"b": 1, "a": 2, "\U0001F600": 3, "�": 4}

	// U+1F600 encodes to a surrogate pair (0xD83D...), which sorts before
	// U+FFFD in UTF-16 even though its UTF-8 bytes sort after.
	assert.Equal(t, []string{"a", "b", "\U0001F600", "�"}, r.Keys())
}

func TestRecord_String(t *testing.T) {
	r := Record{"foo": "hello", "n": int64(2)}
	assert.Equal(t, `{"foo":"hello","n":2}`, r.String())

	bad := Record{"f": func() {}}
	require.Contains(t, bad.String(), "invalid record")
}
