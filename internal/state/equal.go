package state

import "reflect"

// ShallowEqual reports whether a and b are equal one level deep.
//
// Scalars compare by value. Slices, arrays and maps of the same type are
// equal when they have the same length and their elements (or entries) are
// identical: equal if comparable, otherwise the very same slice, map or
// function. Nested containers are not descended into.
func ShallowEqual(a, b any) bool {
	if identical(a, b) {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Slice, reflect.Array:
		if va.Len() != vb.Len() {
			return false
		}
		for i := 0; i < va.Len(); i++ {
			if !identical(va.Index(i).Interface(), vb.Index(i).Interface()) {
				return false
			}
		}
		return true
	case reflect.Map:
		if va.Len() != vb.Len() {
			return false
		}
		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !identical(iter.Value().Interface(), other.Interface()) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !va.Type().Field(i).IsExported() {
				return false
			}
			if !identical(va.Field(i).Interface(), vb.Field(i).Interface()) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// identical is == for comparable values and reference identity for maps,
// slices and funcs. It never panics on uncomparable dynamic types.
func identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch va.Kind() {
	case reflect.Map, reflect.Func:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && (va.Len() == 0 || va.Pointer() == vb.Pointer())
	default:
		return false
	}
}

// Dedupe returns a stateful filter predicate that drops a value when it is
// shallow-equal to the previously kept one. The first value is always kept.
//
//	stream.Filter(flags, state.Dedupe[bool]())
func Dedupe[T any]() func(T) bool {
	return DedupeBy(func(v T) T { return v })
}

// DedupeBy is Dedupe comparing key(v) instead of v itself.
func DedupeBy[T, K any](key func(T) K) func(T) bool {
	var (
		memo K
		seen bool
	)
	return func(v T) bool {
		k := key(v)
		if seen && ShallowEqual(k, memo) {
			return false
		}
		memo = k
		seen = true
		return true
	}
}
