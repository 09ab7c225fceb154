package state

import "slices"

// Record is a snapshot of application state: a keyed record whose shape is
// defined by the application. Values are plain Go values (strings, numbers,
// bools, nil, []any, map[string]any, nested Records).
//
// Records are treated as immutable once published on a stream. Merge always
// returns a fresh map.
type Record map[string]any

// Merge returns the shallow merge of patch over prev: top-level keys present
// in patch overwrite those in prev, all other keys are preserved. Neither
// argument is modified. A key present in patch with a nil value overwrites
// with nil; it does not delete the key.
func Merge(prev, patch Record) Record {
	out := make(Record, len(prev)+len(patch))
	for k, v := range prev {
		out[k] = v
	}
	for k, v := range patch {
		out[k] = v
	}
	return out
}

// Fold merges every patch over initial, left to right.
func Fold(initial Record, patches ...Record) Record {
	acc := initial.Clone()
	for _, p := range patches {
		acc = Merge(acc, p)
	}
	return acc
}

// Clone returns a shallow copy. A nil Record clones to an empty one.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Keys returns the keys in canonical (UTF-16 code unit) order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

// String renders the record as canonical JSON, or a placeholder when the
// record holds values canonical JSON cannot represent.
func (r Record) String() string {
	data, err := MarshalCanonical(r)
	if err != nil {
		return "<invalid record: " + err.Error() + ">"
	}
	return string(data)
}
