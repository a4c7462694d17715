package pool

import (
	"time"
)

// PooledConn is a wrapper around one session plus pool-scoped metadata.
//
// The id is assigned once from the pool's monotonic counter and is never
// reused or renumbered, so log lines stay correlatable no matter how the
// backing slice shifts underneath.
type PooledConn struct {
	id      uint64
	session Session

	// guarded by the owning pool's mutex
	available bool
	timer     *time.Timer

	// fixed at creation: the expiry the connection was born with,
	// reused on every detach; zero means never expires
	expiry time.Duration

	createdAt   time.Time
	jobIdentity string
}

// ID returns the connection's stable pool-scoped identifier.
func (c *PooledConn) ID() uint64 {
	return c.id
}

// Session returns the session exclusively owned by this connection.
func (c *PooledConn) Session() Session {
	return c.session
}

// CreatedAt returns when the pool created this connection.
func (c *PooledConn) CreatedAt() time.Time {
	return c.createdAt
}

// JobIdentity returns the session's diagnostic label captured at
// creation time.
func (c *PooledConn) JobIdentity() string {
	return c.jobIdentity
}

// cancelTimerLocked stops any pending expiry timer. Caller holds the
// pool mutex.
func (c *PooledConn) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
