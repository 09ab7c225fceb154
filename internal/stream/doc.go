// Package stream provides the push-based reactive streams the runtime is
// built from.
//
// A Stream[T] is lazy and multicast: its producer starts with the first
// subscriber and stops with the last. Values propagate synchronously, so a
// Push returns only after every consumer downstream has run. The only way
// to leave the current call stack is Delay, which hands each signal to a
// Scheduler and delivers it on a later turn.
//
// Proxy is the forward reference used to close cycles: a placeholder
// stream that consumers can be built against before its producer exists,
// bound exactly once with Imitate.
//
// Operators are package functions rather than methods because Go methods
// cannot introduce type parameters:
//
//	clicks := stream.Filter(view, isClick)
//	updates := stream.Map(clicks, toUpdate)
//	state := stream.Remember(stream.Fold(updates, merge, initial))
package stream
