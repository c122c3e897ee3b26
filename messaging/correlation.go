package messaging

import "sync"

// CorrelationTable maps correlation ids to single-shot waiters. Callers
// register a waiter before publishing a request and park on it until
// the response listener resolves it or their deadline fires.
//
// Claiming is atomic: Resolve removes the entry and fulfills the waiter
// in one step, so for any correlation id at most one value is ever
// delivered and a second reply for the same id finds no entry.
type CorrelationTable struct {
	mu      sync.Mutex
	waiters map[string]chan []byte
}

// NewCorrelationTable creates an empty table.
func NewCorrelationTable() *CorrelationTable {
	return &CorrelationTable{
		waiters: make(map[string]chan []byte),
	}
}

// Register creates a fresh waiter under id and returns its receive end.
// The waiter accepts exactly one value. Registering an id twice
// replaces the earlier waiter, which is then unreachable by Resolve.
func (t *CorrelationTable) Register(id string) <-chan []byte {
	w := make(chan []byte, 1)
	t.mu.Lock()
	t.waiters[id] = w
	t.mu.Unlock()
	return w
}

// Resolve claims the waiter for id, removes it, and fulfills it with
// payload. It reports whether a waiter was found; a reply arriving
// after the caller gave up (or a duplicate reply) returns false and has
// no other effect.
func (t *CorrelationTable) Resolve(id string, payload []byte) bool {
	t.mu.Lock()
	w, ok := t.waiters[id]
	if ok {
		delete(t.waiters, id)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}

	// Buffered with capacity one and claimed exactly once, so this
	// never blocks.
	w <- payload
	return true
}

// Remove deletes the entry for id if it still exists. Callers invoke it
// unconditionally after a call completes so abandoned waiters never
// accumulate.
func (t *CorrelationTable) Remove(id string) {
	t.mu.Lock()
	delete(t.waiters, id)
	t.mu.Unlock()
}

// Len returns the number of in-flight waiters.
func (t *CorrelationTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.waiters)
}
