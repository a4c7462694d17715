// Package dbjob implements the pool's Session contract on top of
// database/sql, so any registered driver (mysql in cmd/poolctl) can back
// a pooled session. Statement semantics and the wire protocol belong to
// the driver.
package dbjob

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/richardm90/rm-mapepire-go/pool"
)

var jobSeq atomic.Uint64

// Job is a database/sql-backed session.
type Job struct {
	db       *sql.DB
	identity string

	mu     sync.Mutex
	status pool.Status
}

var _ pool.Session = (*Job)(nil)

// Open connects using the named driver and verifies the connection with
// a ping before handing the session out.
func Open(driverName, dsn string) (*Job, error) {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}

	// each pooled session is exactly one connection; the pool above is
	// the one doing the pooling
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}

	return &Job{
		db:       db,
		identity: fmt.Sprintf("%s-job-%d", driverName, jobSeq.Add(1)),
		status:   pool.StatusReady,
	}, nil
}

// Execute runs one statement. Row-returning statements are folded into
// Result.Rows; everything else reports an update count.
func (j *Job) Execute(sqlText string, opts *pool.ExecuteOptions) (*pool.Result, error) {
	j.setStatus(pool.StatusBusy)
	defer j.setStatus(pool.StatusReady)

	var params []any
	limit := 0
	if opts != nil {
		params = opts.Parameters
		limit = opts.RowLimit
	}

	if !returnsRows(sqlText) {
		res, err := j.db.Exec(sqlText, params...)
		if err != nil {
			return nil, err
		}
		count, _ := res.RowsAffected()
		return &pool.Result{Success: true, UpdateCount: int(count)}, nil
	}

	rows, err := j.db.Query(sqlText, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	result := &pool.Result{Success: true}
	for rows.Next() {
		if limit > 0 && len(result.Rows) >= limit {
			break
		}
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			row[col] = values[i]
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Probe pings the underlying connection.
func (j *Job) Probe() error {
	return j.db.Ping()
}

// Close releases the underlying connection. Safe to call more than once.
func (j *Job) Close() error {
	j.mu.Lock()
	if j.status == pool.StatusEnded {
		j.mu.Unlock()
		return nil
	}
	j.status = pool.StatusEnded
	j.mu.Unlock()
	return j.db.Close()
}

// Status reports the job's current lifecycle state.
func (j *Job) Status() pool.Status {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status
}

// Identity returns the process-local job label.
func (j *Job) Identity() string {
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

// returnsRows guesses whether a statement produces a result set.
func returnsRows(sqlText string) bool {
	head := strings.ToLower(strings.TrimSpace(sqlText))
	for _, kw := range []string{"select", "values", "show", "with", "describe", "explain"} {
		if strings.HasPrefix(head, kw) {
			return true
		}
	}
	return false
}
