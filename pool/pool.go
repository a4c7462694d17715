package pool

import (
	"fmt"
	"sync"
	"time"

	"github.com/richardm90/rm-mapepire-go/errs"
	log "github.com/sirupsen/logrus"
)

// SessionPool owns a bounded collection of reusable sessions to one
// database service. Attach hands out exclusively claimed connections,
// growing the pool on demand up to MaxSize; Detach returns them; Retire
// closes and removes them for good.
type SessionPool struct {
	name string
	opts *Options
	log  log.FieldLogger

	// admission is a single-slot channel serializing the whole
	// scan-or-grow decision of Attach. Goroutines park on it in FIFO
	// order, so claim decisions are served in submission order and
	// never interleave.
	admission chan struct{}

	// mu guards conns, nextID and the per-connection available flags
	// and timers
	mu     sync.Mutex
	conns  []*PooledConn
	nextID uint64

	events *listenerSet
}

// NewSessionPool builds a pool from the given options. The pool holds no
// connections until Init is called.
func NewSessionPool(opts *Options) (*SessionPool, error) {
	opts, err := opts.withDefaults()
	if err != nil {
		return nil, err
	}

	p := &SessionPool{
		name:      opts.Name,
		opts:      opts,
		admission: make(chan struct{}, 1),
		events:    newListenerSet(),
	}
	p.log = opts.Logger.WithField("pool", p.name)

	return p, nil
}

// Name returns the pool identifier.
func (p *SessionPool) Name() string {
	return p.name
}

// Subscribe registers a listener for one event kind. Listeners are
// invoked synchronously and a panicking listener never aborts the pool
// operation that triggered it.
func (p *SessionPool) Subscribe(kind EventKind, fn Listener) {
	p.events.subscribe(kind, fn)
}

// Init fills the pool with InitialSize connections, each scheduled with
// InitialExpiry. Creation is sequential; the first factory failure
// aborts and surfaces as a SessionCreationErr.
func (p *SessionPool) Init() error {
	p.admission <- struct{}{}
	defer func() { <-p.admission }()

	for i := 0; i < p.opts.InitialSize; i++ {
		if _, err := p.createConn(p.opts.InitialExpiry); err != nil {
			return err
		}
	}

	p.log.Debugf("initialized with %d connections", p.opts.InitialSize)
	p.emit(Event{Kind: EventInitialized, Pool: p.name})
	return nil
}

// Attach claims a connection for the caller's exclusive use.
//
// The scan-or-grow decision runs under admission so that no two callers
// can observe the same connection as available: a bare read-flag-then-set
// sequence would be a check/use race. Probe-failing candidates are
// retired and the scan restarts, bounded by a MaxSize retry ceiling.
func (p *SessionPool) Attach() (*PooledConn, error) {
	p.admission <- struct{}{}
	defer func() { <-p.admission }()

	retries := 0
	for {
		c := p.claimFirstAvailable()
		if c != nil {
			if !p.opts.DisableHealthCheck {
				if err := c.session.Probe(); err != nil {
					p.log.WithField("conn", c.id).Debugf("health check failed: %s", err)
					p.emit(Event{Kind: EventHealthCheckFailed, Pool: p.name, ConnID: c.id})
					if rerr := p.Retire(c); rerr != nil {
						p.log.WithField("conn", c.id).Debugf("retire after failed probe: %s", rerr)
					}

					retries++
					if retries >= p.opts.MaxSize {
						return nil, errs.NewHealthCheckExhaustedErr(fmt.Sprintf(
							"pool %s: %d candidates failed their health check", p.name, retries))
					}
					continue
				}
			}

			p.emit(Event{Kind: EventAttached, Pool: p.name, ConnID: c.id})
			return c, nil
		}

		created, err := p.grow()
		if err != nil {
			return nil, err
		}
		if created == 0 {
			p.emit(Event{Kind: EventExhausted, Pool: p.name, MaxSize: p.opts.MaxSize})
			return nil, errs.NewPoolExhaustedErr(fmt.Sprintf(
				"pool %s exhausted: max size %d reached", p.name, p.opts.MaxSize))
		}
	}
}

// claimFirstAvailable scans left to right and claims the first available
// connection, cancelling its expiry timer so it cannot be expired while
// claimed. Returns nil if every connection is busy.
func (p *SessionPool) claimFirstAvailable() *PooledConn {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.conns {
		if c.available {
			c.available = false
			c.cancelTimerLocked()
			return c
		}
	}
	return nil
}

// grow adds up to IncrementSize connections, stopping at MaxSize.
// Returns how many were created; zero with a nil error means the pool is
// already full.
func (p *SessionPool) grow() (int, error) {
	created := 0
	for i := 0; i < p.opts.IncrementSize; i++ {
		p.mu.Lock()
		full := len(p.conns) >= p.opts.MaxSize
		p.mu.Unlock()
		if full {
			break
		}

		if _, err := p.createConn(p.opts.IncrementExpiry); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// createConn builds one session via the factory and wraps it. Only Init
// and grow call this, both under admission, so the MaxSize bound checked
// by the caller cannot be overshot.
func (p *SessionPool) createConn(expiry time.Duration) (*PooledConn, error) {
	sess, err := p.opts.Factory()
	if err != nil {
		return nil, errs.NewSessionCreationErr(
			fmt.Sprintf("pool %s: create session failed", p.name), err)
	}

	p.mu.Lock()
	p.nextID++
	c := &PooledConn{
		id:          p.nextID,
		session:     sess,
		available:   true,
		expiry:      expiry,
		createdAt:   time.Now(),
		jobIdentity: sess.Identity(),
	}
	p.conns = append(p.conns, c)
	p.scheduleExpiryLocked(c)
	p.mu.Unlock()

	p.log.WithField("conn", c.id).Debugf("created, job %s", c.jobIdentity)
	p.emit(Event{Kind: EventCreated, Pool: p.name, ConnID: c.id})
	return c, nil
}

// Detach returns a claimed connection to the available set and
// reschedules its expiry using the duration it was created with. Safe to
// call on a connection that is already available. Detaching a connection
// the pool no longer tracks returns a DetachErr.
func (p *SessionPool) Detach(c *PooledConn) error {
	p.mu.Lock()
	if !p.containsLocked(c.id) {
		p.mu.Unlock()
		return errs.NewDetachErr(fmt.Sprintf(
			"pool %s: detach of untracked connection %d", p.name, c.id))
	}
	c.available = true
	p.scheduleExpiryLocked(c)
	p.mu.Unlock()

	p.emit(Event{Kind: EventDetached, Pool: p.name, ConnID: c.id})
	return nil
}

// Retire permanently removes a connection: cancel its timer, drop it
// from the collection by id, close the session. A close failure is
// wrapped in a RetireErr but the connection is removed from bookkeeping
// regardless, so a dead session can never occupy a slot.
func (p *SessionPool) Retire(c *PooledConn) error {
	p.mu.Lock()
	c.cancelTimerLocked()
	removed := p.removeLocked(c.id)
	p.mu.Unlock()

	var retireErr error
	if err := c.session.Close(); err != nil {
		retireErr = errs.NewRetireErr(fmt.Sprintf(
			"pool %s: close session of connection %d", p.name, c.id), err)
	}

	if removed {
		p.log.WithField("conn", c.id).Debug("retired")
		p.emit(Event{Kind: EventRetired, Pool: p.name, ConnID: c.id})
	}
	return retireErr
}

// DetachAll returns every pooled connection to the available set.
func (p *SessionPool) DetachAll() error {
	var failures []error
	for _, c := range p.snapshot() {
		if err := p.Detach(c); err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return errs.NewAggregateErr(failures)
	}
	return nil
}

// RetireAll retires every pooled connection, keeps going past individual
// failures, and reports them as one aggregate error.
func (p *SessionPool) RetireAll() error {
	var failures []error
	for _, c := range p.snapshot() {
		if err := p.Retire(c); err != nil {
			failures = append(failures, err)
		}
	}
	if len(failures) > 0 {
		return errs.NewAggregateErr(failures)
	}
	return nil
}

// Query borrows a connection, executes one statement through its
// session, and always returns the connection to the pool, on failure
// paths included.
func (p *SessionPool) Query(sql string, opts *ExecuteOptions) (*Result, error) {
	c, err := p.Attach()
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := p.Detach(c); derr != nil {
			p.log.WithField("conn", c.id).Debugf("detach after query: %s", derr)
		}
	}()

	return c.session.Execute(sql, opts)
}

// Len returns the current number of pooled connections.
func (p *SessionPool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// scheduleExpiryLocked arms the connection's expiry timer, replacing any
// pending one. A zero expiry means the connection never expires. Caller
// holds p.mu.
func (p *SessionPool) scheduleExpiryLocked(c *PooledConn) {
	c.cancelTimerLocked()
	if c.expiry <= 0 {
		return
	}
	c.timer = time.AfterFunc(c.expiry, func() {
		p.expire(c)
	})
}

// expire is the timer callback. Claiming cancels the timer under p.mu,
// so a fired callback that lost that race sees available == false and
// backs off; an idle connection is never handed out mid-expiry.
func (p *SessionPool) expire(c *PooledConn) {
	p.mu.Lock()
	if !c.available || !p.containsLocked(c.id) {
		p.mu.Unlock()
		return
	}
	c.available = false
	p.mu.Unlock()

	p.log.WithField("conn", c.id).Debug("idle expiry reached")
	p.emit(Event{Kind: EventExpired, Pool: p.name, ConnID: c.id})
	if err := p.Retire(c); err != nil {
		p.log.WithField("conn", c.id).Debugf("retire expired connection: %s", err)
	}
}

// containsLocked reports whether a connection id is still pooled.
// Caller holds p.mu.
func (p *SessionPool) containsLocked(id uint64) bool {
	for _, c := range p.conns {
		if c.id == id {
			return true
		}
	}
	return false
}

// removeLocked drops a connection by id, never by position, so surviving
// connections keep their identity. Caller holds p.mu.
func (p *SessionPool) removeLocked(id uint64) bool {
	for i, c := range p.conns {
		if c.id == id {
			p.conns = append(p.conns[:i], p.conns[i+1:]...)
			return true
		}
	}
	return false
}

// snapshot copies the current membership so bulk operations tolerate the
// collection shrinking while they iterate.
func (p *SessionPool) snapshot() []*PooledConn {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*PooledConn, len(p.conns))
	copy(out, p.conns)
	return out
}

func (p *SessionPool) emit(ev Event) {
	p.events.dispatch(ev, func(r any) {
		p.log.Debugf("event listener panic on %s: %v", ev.Kind, r)
	})
}
