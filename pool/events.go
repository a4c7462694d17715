package pool

import (
	"sync"
)

// EventKind identifies a pool lifecycle notification.
type EventKind string

const (
	EventInitialized       EventKind = "initialized"
	EventCreated           EventKind = "created"
	EventAttached          EventKind = "attached"
	EventDetached          EventKind = "detached"
	EventRetired           EventKind = "retired"
	EventExpired           EventKind = "expired"
	EventHealthCheckFailed EventKind = "healthCheckFailed"
	EventExhausted         EventKind = "exhausted"
)

// Event is one lifecycle notification. ConnID is zero for pool-level
// events (initialized, exhausted); MaxSize is set for exhausted.
type Event struct {
	Kind    EventKind
	Pool    string
	ConnID  uint64
	MaxSize int
}

// Listener receives events synchronously on the goroutine that triggered
// them. Implementations should be lightweight; callbacks run on hot paths.
type Listener func(Event)

// listenerSet is a per-kind registration table. Dispatch is best-effort:
// a panicking listener is isolated and must not abort the pool operation
// that triggered it.
type listenerSet struct {
	mu        sync.RWMutex
	listeners map[EventKind][]Listener
}

func newListenerSet() *listenerSet {
	return &listenerSet{
		listeners: make(map[EventKind][]Listener),
	}
}

func (s *listenerSet) subscribe(kind EventKind, fn Listener) {
	s.mu.Lock()
	s.listeners[kind] = append(s.listeners[kind], fn)
	s.mu.Unlock()
}

func (s *listenerSet) dispatch(ev Event, onPanic func(recovered any)) {
	s.mu.RLock()
	fns := s.listeners[ev.Kind]
	s.mu.RUnlock()

	for _, fn := range fns {
		invoke(fn, ev, onPanic)
	}
}

func invoke(fn Listener, ev Event, onPanic func(recovered any)) {
	defer func() {
		if r := recover(); r != nil && onPanic != nil {
			onPanic(r)
		}
	}()
	fn(ev)
}
