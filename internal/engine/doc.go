// Package engine implements the cooperative scheduler of the frap runtime.
//
// The scheduler is the one place where execution is suspended. Stream
// propagation is otherwise fully synchronous: an emitted value reaches all of
// its consumers before the producer's call returns. A cyclic stream graph
// built that way would re-enter itself on the same call stack, so every
// feedback edge hands its value to the scheduler instead, and the value is
// delivered on a later turn.
//
// ARCHITECTURE:
//
// Single-Writer Task Loop:
// Tasks are executed one at a time on a single goroutine. This ensures:
// - Predictable propagation order
// - No locking around application state
// - Simple reasoning about causality
//
// Task Processing Flow:
// 1. Tasks enqueued to FIFO queue (Schedule/Submit, from any goroutine)
// 2. Step() dequeues one task, advances the logical clock, runs it
// 3. Drain() repeats until the queue is empty (deterministic test mode)
// 4. Run() repeats forever, waiting on the queue signal (service mode)
//
// There is no backpressure. Producers that outrun the loop grow the queue.
//
// CRITICAL PATTERNS:
//
// Logical Clock:
// Every turn is stamped by Clock.Next(). A task scheduled during turn t
// runs at a turn > t. NEVER use wall-clock timestamps for ordering.
//
// Quota:
// WithMaxSteps bounds the number of turns, turning a feedback loop that
// never settles into a StepsExceededError.
package engine
