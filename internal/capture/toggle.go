package capture

import "sync"

// Toggle is the on/off switch for capturing. Listeners are told about
// every change.
type Toggle struct {
	mu        sync.Mutex
	active    bool
	nextID    int
	listeners map[int]func(active bool)
}

// NewToggle creates a toggle in the given state.
func NewToggle(active bool) *Toggle {
	return &Toggle{active: active, listeners: make(map[int]func(bool))}
}

// Active reports whether capturing is on.
func (t *Toggle) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}

// Enable turns capturing on.
func (t *Toggle) Enable() { t.set(true) }

// Disable turns capturing off.
func (t *Toggle) Disable() { t.set(false) }

// Subscribe registers fn and returns a function that removes it.
func (t *Toggle) Subscribe(fn func(active bool)) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.listeners[id] = fn
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.listeners, id)
	}
}

func (t *Toggle) set(active bool) {
	t.mu.Lock()
	if t.active == active {
		t.mu.Unlock()
		return
	}
	t.active = active
	fns := make([]func(bool), 0, len(t.listeners))
	for _, fn := range t.listeners {
		fns = append(fns, fn)
	}
	t.mu.Unlock()

	// Listeners run outside the lock so they may call back into the toggle.
	for _, fn := range fns {
		fn(active)
	}
}
