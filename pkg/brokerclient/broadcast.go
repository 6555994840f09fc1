package brokerclient

import "sync"

// BroadcastOnce is a single-writer, many-reader one-shot result cell. It
// transitions Empty -> Fired(value) exactly once; every receiver created
// before Broadcast observes the value, and Peek is stable afterwards.
//
// A closed channel broadcasts to an arbitrary number of waiters in one
// call with no per-waiter bookkeeping, so Receive hands back the same
// channel to everyone and Broadcast closes it once. sync.Cond was
// considered instead but rejected: producer.go's caller needs to select on
// this alongside a linger timer, and sync.Cond.Wait does not compose with
// select.
type BroadcastOnce[T any] struct {
	mu   sync.Mutex
	done chan struct{}
	val  T
	set  bool
}

// NewBroadcastOnce returns a fresh, unfired slot.
func NewBroadcastOnce[T any]() *BroadcastOnce[T] {
	return &BroadcastOnce[T]{done: make(chan struct{})}
}

// Receive returns a channel that closes exactly once, when Broadcast is
// called (or immediately, if it already has been). Callers select on it
// against whatever else they're racing, then call Peek to fetch the value.
func (b *BroadcastOnce[T]) Receive() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// Peek returns the fired value and true, or the zero value and false if the
// slot has not fired yet.
func (b *BroadcastOnce[T]) Peek() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.val, b.set
}

// Broadcast fires the slot with v, waking every receiver obtained before
// this call. Calling Broadcast more than once panics: each slot is used by
// exactly one flush, per the tag-slot pairing invariant in producer.go.
func (b *BroadcastOnce[T]) Broadcast(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.set {
		panic("brokerclient: BroadcastOnce fired twice")
	}
	b.val = v
	b.set = true
	close(b.done)
}
