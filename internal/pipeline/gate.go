package pipeline

import "sync"

// Gate holds the two global flags of §5: is_running (a shutdown flag that
// breaks every worker loop at its next dequeue) and is_inspecting (the
// operator-visible pause that silently drops enqueues). Both are read-mostly
// and protected by one mutex, per §5's locking discipline: "At most one
// cross-stage lock (the global-state mutex) is held at a time; never held
// across a queue put/get."
//
// Per the Open Question resolution in DESIGN.md, is_inspecting is checked
// only by producers before a queue Put, never by consumers after a Get.
type Gate struct {
	mu          sync.RWMutex
	running     bool
	inspecting  bool
	done        chan struct{}
	closeOnce   sync.Once
}

// NewGate returns a Gate that starts running and inspecting.
func NewGate() *Gate {
	return &Gate{running: true, inspecting: true, done: make(chan struct{})}
}

// Running reports whether the pipeline should keep processing.
func (g *Gate) Running() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.running
}

// IsInspecting reports whether producers should enqueue new work.
func (g *Gate) IsInspecting() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.inspecting
}

// SetInspecting toggles the operator-visible pause gate.
func (g *Gate) SetInspecting(v bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.inspecting = v
}

// Done returns a channel that is closed once Shutdown is called, for
// workers blocked in a Queue.Get to observe shutdown without polling
// Running on every iteration.
func (g *Gate) Done() <-chan struct{} {
	return g.done
}

// Shutdown flips is_running to false and closes Done, so every worker loop
// breaks at its next dequeue.
func (g *Gate) Shutdown() {
	g.mu.Lock()
	g.running = false
	g.mu.Unlock()
	g.closeOnce.Do(func() { close(g.done) })
}
