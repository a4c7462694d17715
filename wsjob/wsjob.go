// Package wsjob implements the pool's Session contract over a websocket
// connection to the database daemon. Each request is a JSON frame tagged
// with a correlation id; responses are matched back by that id. SQL
// semantics live entirely on the server side.
package wsjob

import (
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/richardm90/rm-mapepire-go/pool"
)

// DefaultTimeout bounds a single request/response round trip.
const DefaultTimeout = 30 * time.Second

// Options carries connect settings for one job.
type Options struct {
	User     string
	Password string

	// Skip TLS certificate verification (self-signed daemons)
	IgnoreUnauthorized bool

	// Per-request deadline, 0 = DefaultTimeout
	Timeout time.Duration
}

// request is one outbound frame.
type request struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	SQL        string `json:"sql,omitempty"`
	Rows       int    `json:"rows,omitempty"`
	Parameters []any  `json:"parameters,omitempty"`
}

// response is one inbound frame. Job is only set on the connect reply.
type response struct {
	pool.Result
	Job string `json:"job"`
}

// Job is a websocket-backed session. The pool guarantees at most one
// claimant, but requests are serialized here too so a stray caller
// cannot interleave frames.
type Job struct {
	conn    *websocket.Conn
	timeout time.Duration

	mu       sync.Mutex
	status   pool.Status
	identity string
}

var _ pool.Session = (*Job)(nil)

// Connect dials the daemon, authenticates, and performs the initial
// handshake. addr may be a bare host:port; wss is assumed.
func Connect(addr string, opts *Options) (*Job, error) {
	if opts == nil {
		opts = &Options{}
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	if !strings.Contains(addr, "://") {
		addr = "wss://" + addr
	}
	if !strings.HasSuffix(addr, "/db/") {
		addr = strings.TrimSuffix(addr, "/") + "/db/"
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: timeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: opts.IgnoreUnauthorized,
		},
	}
	header := http.Header{}
	if opts.User != "" {
		cred := base64.StdEncoding.EncodeToString([]byte(opts.User + ":" + opts.Password))
		header.Set("Authorization", "Basic "+cred)
	}

	conn, resp, err := dialer.Dial(addr, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %w (status %s)", addr, err, resp.Status)
		}
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	j := &Job{
		conn:     conn,
		timeout:  timeout,
		status:   pool.StatusNotStarted,
		identity: uuid.NewString(),
	}

	reply, err := j.roundTrip(&request{ID: uuid.NewString(), Type: "connect"})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	if !reply.Success {
		_ = conn.Close()
		return nil, fmt.Errorf("handshake rejected: %s", reply.Message)
	}

	j.mu.Lock()
	if reply.Job != "" {
		j.identity = reply.Job
	}
	j.status = pool.StatusReady
	j.mu.Unlock()

	return j, nil
}

// Execute runs one statement on the remote job.
func (j *Job) Execute(sql string, opts *pool.ExecuteOptions) (*pool.Result, error) {
	req := &request{ID: uuid.NewString(), Type: "sql", SQL: sql}
	if opts != nil {
		req.Rows = opts.RowLimit
		req.Parameters = opts.Parameters
	}

	j.setStatus(pool.StatusBusy)
	defer j.setStatus(pool.StatusReady)

	reply, err := j.roundTrip(req)
	if err != nil {
		return nil, err
	}
	if !reply.Success {
		return &reply.Result, fmt.Errorf("execute: %s", reply.Message)
	}
	return &reply.Result, nil
}

// Probe sends a ping frame. Any transport error or unsuccessful reply
// means the session is no longer usable.
func (j *Job) Probe() error {
	reply, err := j.roundTrip(&request{ID: uuid.NewString(), Type: "ping"})
	if err != nil {
		return err
	}
	if !reply.Success {
		return errors.New("probe rejected: " + reply.Message)
	}
	return nil
}

// Close tells the daemon the job is done and drops the socket. Safe to
// call more than once.
func (j *Job) Close() error {
	j.mu.Lock()
	if j.status == pool.StatusEnded {
		j.mu.Unlock()
		return nil
	}
	j.status = pool.StatusEnded
	j.mu.Unlock()

	// best-effort goodbye; the daemon reaps the job either way
	deadline := time.Now().Add(time.Second)
	_ = j.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return j.conn.Close()
}

// Status reports the job's current lifecycle state.
func (j *Job) Status() pool.Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Identity returns the server-assigned job name, or a local uuid when
// the server did not assign one.
func (j *Job) Identity() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.identity
}

// setStatus flips between ready and busy; ended is terminal.
func (j *Job) setStatus(s pool.Status) {
	j.mu.Lock()
	if j.status != pool.StatusEnded {
		j.status = s
	}
	j.mu.Unlock()
}

// roundTrip writes one frame and reads until the reply with the same id
// arrives. Frames with unknown ids are stale replies from a timed-out
// request and are discarded.
func (j *Job) roundTrip(req *request) (*response, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	deadline := time.Now().Add(j.timeout)
	_ = j.conn.SetWriteDeadline(deadline)
	if err := j.conn.WriteJSON(req); err != nil {
		return nil, fmt.Errorf("write %s frame: %w", req.Type, err)
	}

	_ = j.conn.SetReadDeadline(deadline)
	for {
		var reply response
		if err := j.conn.ReadJSON(&reply); err != nil {
			return nil, fmt.Errorf("read %s reply: %w", req.Type, err)
		}
		if reply.ID == req.ID {
			return &reply, nil
		}
	}
}
