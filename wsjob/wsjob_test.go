package wsjob

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/richardm90/rm-mapepire-go/pool"
)

// fakeDaemon speaks the frame protocol over a local websocket server.
type fakeDaemon struct {
	srv        *httptest.Server
	jobSeq     atomic.Int64
	rejectAuth bool
	failPing   atomic.Bool
}

func newFakeDaemon(t *testing.T) *fakeDaemon {
	t.Helper()
	d := &fakeDaemon{}
	upgrader := websocket.Upgrader{}

	d.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if d.rejectAuth && r.Header.Get("Authorization") == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			var req map[string]any
			if err := conn.ReadJSON(&req); err != nil {
				return
			}
			id, _ := req["id"].(string)
			reply := map[string]any{"id": id, "success": true}

			switch req["type"] {
			case "connect":
				reply["job"] = d.nextJob()
			case "ping":
				if d.failPing.Load() {
					reply["success"] = false
					reply["error"] = "job ended"
				}
			case "sql":
				sql, _ := req["sql"].(string)
				if strings.HasPrefix(strings.ToLower(sql), "select") || strings.HasPrefix(strings.ToLower(sql), "values") {
					reply["data"] = []map[string]any{{"echo": sql}}
				} else {
					reply["update_count"] = 1
				}
			default:
				reply["success"] = false
				reply["error"] = "unknown frame"
			}

			if err := conn.WriteJSON(reply); err != nil {
				return
			}
		}
	}))
	t.Cleanup(d.srv.Close)
	return d
}

func (d *fakeDaemon) nextJob() string {
	return "svr-job-" + strconv.FormatInt(d.jobSeq.Add(1), 10)
}

func (d *fakeDaemon) addr() string {
	return "ws" + strings.TrimPrefix(d.srv.URL, "http")
}

func TestConnect(t *testing.T) {
	d := newFakeDaemon(t)

	j, err := Connect(d.addr(), &Options{User: "app", Password: "secret"})
	if err != nil {
		t.Fatalf("Connect error: %s", err)
	}
	defer j.Close()

	if j.Status() != pool.StatusReady {
		t.Errorf("expected ready status, got %s", j.Status())
	}
	if !strings.HasPrefix(j.Identity(), "svr-job-") {
		t.Errorf("expected server-assigned job name, got %q", j.Identity())
	}
}

func TestConnectRejected(t *testing.T) {
	d := newFakeDaemon(t)
	d.rejectAuth = true

	if _, err := Connect(d.addr(), nil); err == nil {
		t.Fatal("Connect without credentials should fail")
	}
}

func TestExecute(t *testing.T) {
	d := newFakeDaemon(t)
	j, err := Connect(d.addr(), nil)
	if err != nil {
		t.Fatalf("Connect error: %s", err)
	}
	defer j.Close()

	res, err := j.Execute("select * from sample.employee", &pool.ExecuteOptions{RowLimit: 10})
	if err != nil {
		t.Fatalf("Execute error: %s", err)
	}
	if len(res.Rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(res.Rows))
	}

	res, err = j.Execute("update sample.employee set salary = 0", nil)
	if err != nil {
		t.Fatalf("Execute error: %s", err)
	}
	if res.UpdateCount != 1 {
		t.Errorf("expected update count 1, got %d", res.UpdateCount)
	}

	if j.Status() != pool.StatusReady {
		t.Errorf("expected ready after execute, got %s", j.Status())
	}
}

func TestProbe(t *testing.T) {
	d := newFakeDaemon(t)
	j, err := Connect(d.addr(), nil)
	if err != nil {
		t.Fatalf("Connect error: %s", err)
	}
	defer j.Close()

	if err := j.Probe(); err != nil {
		t.Errorf("Probe error: %s", err)
	}

	d.failPing.Store(true)
	if err := j.Probe(); err == nil {
		t.Errorf("Probe should surface a rejected ping")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	d := newFakeDaemon(t)
	j, err := Connect(d.addr(), nil)
	if err != nil {
		t.Fatalf("Connect error: %s", err)
	}

	if err := j.Close(); err != nil {
		t.Errorf("Close error: %s", err)
	}
	if err := j.Close(); err != nil {
		t.Errorf("second Close error: %s", err)
	}
	if j.Status() != pool.StatusEnded {
		t.Errorf("expected ended status, got %s", j.Status())
	}
}

func TestProbeAfterServerGone(t *testing.T) {
	d := newFakeDaemon(t)
	j, err := Connect(d.addr(), nil)
	if err != nil {
		t.Fatalf("Connect error: %s", err)
	}
	defer j.Close()

	d.srv.CloseClientConnections()
	if err := j.Probe(); err == nil {
		t.Errorf("Probe should fail once the server is gone")
	}
}
