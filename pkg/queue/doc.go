// Package queue serializes every operation that touches the graph model.
//
// # Why a queue
//
// The graph state in pkg/graphstate has no internal locking, and its
// collapse/expand bookkeeping is not safe under interleaved mutation. The
// [Serial] executor provides the load-bearing guarantee: units run strictly
// one at a time in FIFO order, and the next unit does not start until the
// previous one has settled - even when a unit spends most of its life
// parked on the layout engine.
//
// # Units
//
// A unit is an operation-kind tag plus a thunk. Enqueuing returns a
// [Handle] (or typed [Future]). Each unit carries a deadline and a retry
// budget: on timeout the unit settles with a TIMEOUT error and the queue
// advances while the thunk finishes in the background with its result
// discarded; on thunk failure the unit is re-attempted up to its budget
// before an OPERATION_FAILED error surfaces. Neither outcome affects units
// queued behind it. There is no mid-flight cancellation and no rollback: a
// thunk that mutates state and then fails leaves the partial mutation in
// place, so multi-step mutations that must be atomic belong inside one
// thunk - which is exactly how [Coordinator] implements container toggles.
//
// # Coordinator
//
// [Coordinator] is the high-level surface: container toggles (single and
// batched), document import, drag write-back, search highlighting, and the
// layout-and-render pipeline with its two self-tuning behaviors - skipping
// redundant layout passes when the state version is unchanged, and scaling
// fit-to-view cost down for large graphs. All tuning state lives on the
// coordinator instance.
package queue
