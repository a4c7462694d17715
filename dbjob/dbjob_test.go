package dbjob

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardm90/rm-mapepire-go/pool"
)

// stubDriver is a minimal in-memory database/sql driver.
type stubDriver struct{}

func (stubDriver) Open(name string) (driver.Conn, error) {
	if name == "refuse" {
		return nil, errors.New("refused")
	}
	return &stubConn{}, nil
}

type stubConn struct{}

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return &stubStmt{query: query}, nil
}
func (c *stubConn) Close() error              { return nil }
func (c *stubConn) Begin() (driver.Tx, error) { return nil, errors.New("transactions not supported") }

type stubStmt struct {
	query string
}

func (s *stubStmt) Close() error  { return nil }
func (s *stubStmt) NumInput() int { return -1 }

func (s *stubStmt) Exec(args []driver.Value) (driver.Result, error) {
	return driver.RowsAffected(3), nil
}

func (s *stubStmt) Query(args []driver.Value) (driver.Rows, error) {
	return &stubRows{}, nil
}

type stubRows struct {
	pos int
}

func (r *stubRows) Columns() []string { return []string{"name", "n"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	rows := [][]driver.Value{
		{"alpha", int64(1)},
		{"beta", int64(2)},
		{"gamma", int64(3)},
	}
	if r.pos >= len(rows) {
		return io.EOF
	}
	copy(dest, rows[r.pos])
	r.pos++
	return nil
}

func init() {
	sql.Register("stub", stubDriver{})
}

func TestOpen(t *testing.T) {
	j, err := Open("stub", "any")
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, pool.StatusReady, j.Status())
	assert.NotEmpty(t, j.Identity())
}

func TestOpenFailure(t *testing.T) {
	_, err := Open("stub", "refuse")
	assert.Error(t, err)
}

func TestExecuteQuery(t *testing.T) {
	j, err := Open("stub", "any")
	require.NoError(t, err)
	defer j.Close()

	res, err := j.Execute("select name, n from t", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "alpha", res.Rows[0]["name"])
	assert.Equal(t, int64(2), res.Rows[1]["n"])
}

func TestExecuteQueryRowLimit(t *testing.T) {
	j, err := Open("stub", "any")
	require.NoError(t, err)
	defer j.Close()

	res, err := j.Execute("select name, n from t", &pool.ExecuteOptions{RowLimit: 2})
	require.NoError(t, err)
	assert.Len(t, res.Rows, 2)
}

func TestExecuteUpdate(t *testing.T) {
	j, err := Open("stub", "any")
	require.NoError(t, err)
	defer j.Close()

	res, err := j.Execute("update t set n = 0", nil)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.UpdateCount)
	assert.Empty(t, res.Rows)
}

func TestProbe(t *testing.T) {
	j, err := Open("stub", "any")
	require.NoError(t, err)
	require.NoError(t, j.Probe())

	require.NoError(t, j.Close())
	assert.Equal(t, pool.StatusEnded, j.Status())
	assert.Error(t, j.Probe(), "probe after close should fail")

	// close is idempotent
	assert.NoError(t, j.Close())
}

func TestReturnsRows(t *testing.T) {
	assert.True(t, returnsRows("SELECT 1"))
	assert.True(t, returnsRows("  with t as (select 1) select * from t"))
	assert.True(t, returnsRows("values (1)"))
	assert.False(t, returnsRows("insert into t values (1)"))
	assert.False(t, returnsRows("call some_proc()"))
}
