package sidecar

import "sync"

// Registry is the process-wide single slot holding the current sidecar
// handle. At most one handle occupies the slot at any time. Take is the
// only way to remove it: the first caller gets the handle, everyone after
// gets nil, which is what prevents a double-kill between a user-initiated
// exit and a second concurrent shutdown trigger.
type Registry struct {
	mu     sync.Mutex
	handle *Handle
}

func NewRegistry() *Registry { return &Registry{} }

// Store places a handle in the slot, replacing any prior value.
func (g *Registry) Store(h *Handle) {
	g.mu.Lock()
	g.handle = h
	g.mu.Unlock()
}

// Take atomically removes and returns the current handle; nil when the slot
// is empty. Safe to call any number of times.
func (g *Registry) Take() *Handle {
	g.mu.Lock()
	h := g.handle
	g.handle = nil
	g.mu.Unlock()
	return h
}

// Current returns the handle without clearing the slot, for status
// reporting only. Lifecycle paths must use Take.
func (g *Registry) Current() *Handle {
	g.mu.Lock()
	h := g.handle
	g.mu.Unlock()
	return h
}
