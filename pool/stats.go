package pool

import (
	"fmt"
	"strings"
	"time"
)

// ConnStats is a point-in-time view of one pooled connection.
type ConnStats struct {
	ID          uint64
	Available   bool
	Status      Status
	JobIdentity string
	CreatedAt   time.Time
}

// Stats is a point-in-time snapshot of the pool.
type Stats struct {
	Pool      string
	Total     int
	Available int
	Busy      int
	MaxSize   int
	Conns     []ConnStats
}

// String renders a human-readable report of the snapshot.
func (s Stats) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pool %s: %d total, %d available, %d busy, max %d\n",
		s.Pool, s.Total, s.Available, s.Busy, s.MaxSize)
	for _, c := range s.Conns {
		state := "busy"
		if c.Available {
			state = "available"
		}
		fmt.Fprintf(&b, "  conn %d: %s, session %s, job %s\n",
			c.ID, state, c.Status, c.JobIdentity)
	}
	return b.String()
}

// Stats returns a snapshot of the pool's current state.
func (p *SessionPool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	stats := Stats{
		Pool:    p.name,
		Total:   len(p.conns),
		MaxSize: p.opts.MaxSize,
		Conns:   make([]ConnStats, 0, len(p.conns)),
	}
	for _, c := range p.conns {
		if c.available {
			stats.Available++
		} else {
			stats.Busy++
		}
		stats.Conns = append(stats.Conns, ConnStats{
			ID:          c.id,
			Available:   c.available,
			Status:      c.session.Status(),
			JobIdentity: c.jobIdentity,
			CreatedAt:   c.createdAt,
		})
	}
	return stats
}
