package pool

import (
	"sync"
	"testing"
)

// recorder collects events synchronously.
type recorder struct {
	mu     sync.Mutex
	kinds  []EventKind
	events []Event
}

func (r *recorder) listen(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, ev.Kind)
	r.events = append(r.events, ev)
}

func (r *recorder) subscribeAll(p *SessionPool) {
	for _, kind := range []EventKind{
		EventInitialized, EventCreated, EventAttached, EventDetached,
		EventRetired, EventExpired, EventHealthCheckFailed, EventExhausted,
	} {
		p.Subscribe(kind, r.listen)
	}
}

func TestLifecycleEvents(t *testing.T) {
	f := &fakeFactory{}
	opts := Options{Name: "test", Factory: f.new, InitialSize: 1, MaxSize: 1, DisableHealthCheck: true}
	p, err := NewSessionPool(&opts)
	if err != nil {
		t.Fatalf("NewSessionPool error: %s", err)
	}

	rec := &recorder{}
	rec.subscribeAll(p)

	if err := p.Init(); err != nil {
		t.Fatalf("Init error: %s", err)
	}
	c, err := p.Attach()
	if err != nil {
		t.Fatalf("Attach error: %s", err)
	}
	if _, err := p.Attach(); err == nil {
		t.Fatal("second Attach on a full pool should fail")
	}
	if err := p.Detach(c); err != nil {
		t.Fatalf("Detach error: %s", err)
	}
	if err := p.Retire(c); err != nil {
		t.Fatalf("Retire error: %s", err)
	}

	want := []EventKind{
		EventCreated, EventInitialized, EventAttached,
		EventExhausted, EventDetached, EventRetired,
	}
	if len(rec.kinds) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), rec.kinds)
	}
	for i, kind := range want {
		if rec.kinds[i] != kind {
			t.Errorf("event %d: expected %s, got %s", i, kind, rec.kinds[i])
		}
	}

	for _, ev := range rec.events {
		if ev.Pool != "test" {
			t.Errorf("event %s missing pool name, got %q", ev.Kind, ev.Pool)
		}
	}

	// exhausted carries the configured max size
	if rec.events[3].MaxSize != 1 {
		t.Errorf("exhausted event should carry max size, got %d", rec.events[3].MaxSize)
	}
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	f := &fakeFactory{}
	p := newTestPool(t, Options{InitialSize: 1, MaxSize: 1, DisableHealthCheck: true}, f)

	p.Subscribe(EventAttached, func(Event) {
		panic("listener bug")
	})
	called := false
	p.Subscribe(EventAttached, func(Event) {
		called = true
	})

	c, err := p.Attach()
	if err != nil {
		t.Fatalf("Attach must survive a panicking listener, got %s", err)
	}
	if !called {
		t.Errorf("later listeners should still run after a panic")
	}
	if err := p.Detach(c); err != nil {
		t.Fatalf("Detach error: %s", err)
	}
}
