package live

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/bindkit/pkg/errors"
)

const testTemplate = `<main><h1 bind-text="title"></h1><ul><li bind-repeat="items" bind-text="$data"></li></ul></main>`

func testModel() map[string]any {
	return map[string]any{
		"title": "Hello",
		"items": []any{"a", "b"},
	}
}

func TestModelApply(t *testing.T) {
	tests := []struct {
		name    string
		updates []Update
		want    map[string]any
		wantErr bool
	}{
		{
			name:    "set property",
			updates: []Update{{Op: OpSet, Key: "title", Value: "Bye"}},
			want:    map[string]any{"title": "Bye", "items": []any{"a", "b"}},
		},
		{
			name:    "push and pop",
			updates: []Update{{Op: OpPush, Key: "items", Value: "c"}, {Op: OpPop, Key: "items"}, {Op: OpPop, Key: "items"}},
			want:    map[string]any{"title": "Hello", "items": []any{"a"}},
		},
		{
			name:    "replace list",
			updates: []Update{{Op: OpSet, Key: "items", Value: []any{"z"}}},
			want:    map[string]any{"title": "Hello", "items": []any{"z"}},
		},
		{
			name:    "list needs array",
			updates: []Update{{Op: OpSet, Key: "items", Value: "z"}},
			wantErr: true,
		},
		{
			name:    "push to property",
			updates: []Update{{Op: OpPush, Key: "title", Value: "x"}},
			wantErr: true,
		},
		{
			name:    "unknown key",
			updates: []Update{{Op: OpSet, Key: "missing", Value: 1}},
			wantErr: true,
		},
		{
			name:    "unknown op",
			updates: []Update{{Op: "shift", Key: "items"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewModel(testModel())
			defer m.Dispose()

			var err error
			for _, u := range tt.updates {
				if err = m.Apply(u); err != nil {
					break
				}
			}
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if errors.KindOf(err) != errors.KindRuntime {
					t.Errorf("kind = %s, want runtime", errors.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if diff := cmp.Diff(tt.want, m.Snapshot()); diff != "" {
				t.Errorf("snapshot mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestModelKeys(t *testing.T) {
	m := NewModel(testModel())
	if diff := cmp.Diff([]string{"items", "title"}, m.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
}

func TestNewRejectsTemplateWithoutElement(t *testing.T) {
	_, err := New(Config{Template: "just text"})
	if errors.CodeOf(err) != errors.CodeInvalidRoot {
		t.Fatalf("err = %v, want %s", err, errors.CodeInvalidRoot)
	}
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Template = testTemplate
	cfg.Model = testModel()
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func TestPage(t *testing.T) {
	_, ts := newTestServer(t)

	code, body := get(t, ts.URL+"/")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	for _, want := range []string{"<title>bindkit</title>", "<h1 bind-text=\"title\">Hello</h1>", ">a</li>", ">b</li>"} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q:\n%s", want, body)
		}
	}
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t)

	code, body := get(t, ts.URL+"/healthz")
	if code != http.StatusOK || body != "ok" {
		t.Errorf("got %d %q", code, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	get(t, ts.URL+"/")
	code, body := get(t, ts.URL+"/metrics")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if !strings.Contains(body, `bindkit_bindings_applied_total{handler="text"}`) {
		t.Errorf("metrics missing applied counter:\n%s", body)
	}
}

func TestMetricsDisabled(t *testing.T) {
	srv, err := New(Config{Template: testTemplate, Model: testModel()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	if code, _ := get(t, ts.URL+"/metrics"); code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", code)
	}
	if srv.Metrics() != nil {
		t.Error("metrics should be nil when disabled")
	}
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return m
}

func write(t *testing.T, conn *websocket.Conn, u Update) {
	t.Helper()
	if err := conn.WriteJSON(u); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestSessionUpdates(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()

	m := read(t, conn)
	if m.Type != MessageRender || !strings.Contains(m.HTML, ">Hello</h1>") {
		t.Fatalf("initial message = %+v", m)
	}
	if n := srv.SessionCount(); n != 1 {
		t.Errorf("SessionCount = %d, want 1", n)
	}

	write(t, conn, Update{Op: OpSet, Key: "title", Value: "Bye"})
	if m := read(t, conn); !strings.Contains(m.HTML, ">Bye</h1>") {
		t.Errorf("after set: %s", m.HTML)
	}

	write(t, conn, Update{Op: OpPush, Key: "items", Value: "c"})
	if m := read(t, conn); strings.Count(m.HTML, "<li") != 3 || !strings.Contains(m.HTML, ">c</li>") {
		t.Errorf("after push: %s", m.HTML)
	}

	write(t, conn, Update{Op: OpPop, Key: "items"})
	write(t, conn, Update{Op: OpPop, Key: "items"})
	read(t, conn)
	if m := read(t, conn); strings.Count(m.HTML, "<li") != 1 {
		t.Errorf("after pops: %s", m.HTML)
	}

	write(t, conn, Update{Op: OpSet, Key: "nope", Value: 1})
	if m := read(t, conn); m.Type != MessageError || !strings.Contains(m.Error, "nope") {
		t.Errorf("bad update: %+v", m)
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	_, ts := newTestServer(t)
	a := dial(t, ts)
	defer a.Close()
	b := dial(t, ts)
	defer b.Close()
	read(t, a)
	read(t, b)

	write(t, a, Update{Op: OpSet, Key: "title", Value: "only a"})
	read(t, a)

	write(t, b, Update{Op: OpPop, Key: "items"})
	if m := read(t, b); !strings.Contains(m.HTML, ">Hello</h1>") {
		t.Errorf("session b saw a's update: %s", m.HTML)
	}
}

func TestServerCloseEndsSessions(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts)
	defer conn.Close()
	read(t, conn)

	srv.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, _, err := conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("err = %v, want normal closure", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for srv.SessionCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("session was not removed")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
