package pool

// Status is the lifecycle state of a remote session as reported by the
// session itself.
type Status int

const (
	StatusNotStarted Status = iota
	StatusReady
	StatusBusy
	StatusEnded
)

func (s Status) String() string {
	switch s {
	case StatusNotStarted:
		return "not-started"
	case StatusReady:
		return "ready"
	case StatusBusy:
		return "busy"
	case StatusEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ExecuteOptions carries per-statement options through to the session.
// The pool never inspects them.
type ExecuteOptions struct {
	// Positional parameters for the statement
	Parameters []any

	// Max number of rows to fetch, 0 means server default
	RowLimit int
}

// Result is what a session hands back for one executed statement. The
// pool treats it as opaque.
type Result struct {
	ID          string           `json:"id"`
	Success     bool             `json:"success"`
	Rows        []map[string]any `json:"data"`
	UpdateCount int              `json:"update_count"`
	Message     string           `json:"error,omitempty"`
}

// Session is the pool's view of one live remote database session. A
// session is exclusively owned by the pooled connection wrapping it;
// ownership never transfers.
//
// Implementations do the actual connecting, authentication and statement
// execution. See the wsjob and dbjob packages.
type Session interface {
	// Execute runs one statement on the remote service
	Execute(sql string, opts *ExecuteOptions) (*Result, error)

	// Probe is a lightweight liveness check; any error means the
	// session is no longer usable
	Probe() error

	// Close ends the session and releases the underlying connection
	Close() error

	// Status reports the session's current lifecycle state
	Status() Status

	// Identity returns a diagnostic label for the session, e.g. the
	// server-assigned job name
	Identity() string
}

// Factory builds a fresh session. Credentials and connect options live
// behind the closure.
type Factory func() (Session, error)
