package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/graphlayout/pkg/config"
	"github.com/matzehuels/graphlayout/pkg/pipeline"
)

const ltsJSON = `{
	"kind": "lts",
	"start": "s0",
	"nodes": [{"id": "s0"}, {"id": "s1"}, {"id": "s2"}],
	"edges": [{"from": "s0", "to": "s1", "label": "a"}, {"from": "s0", "to": "s2", "label": "b"}]
}`

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	logger := log.New(io.Discard)
	s := New(pipeline.NewRunner(nil, nil, logger), logger, config.Default().Layout)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func decodeError(t *testing.T, resp *http.Response) errorResponse {
	t.Helper()
	var e errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&e); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return e
}

func TestHealthz(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("request id %q is not a uuid", resp.Header.Get(RequestIDHeader))
	}
	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || body.Build.Version == "" {
		t.Errorf("body = %+v", body)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	ts := testServer(t)
	id := uuid.NewString()

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}

	req.Header.Set(RequestIDHeader, "not-a-uuid")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got == "not-a-uuid" {
		t.Error("invalid client request id was echoed")
	}
}

func TestAlgorithms(t *testing.T) {
	ts := testServer(t)
	resp, err := http.Get(ts.URL + "/v1/algorithms")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct{ Algorithms []string }
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(body.Algorithms, []string{"forest", "spring"}) {
		t.Errorf("algorithms = %v", body.Algorithms)
	}
}

func TestLayout(t *testing.T) {
	ts := testServer(t)
	body := `{"graph": ` + ltsJSON + `, "options": {"timeout": "1s"}}`

	resp, err := http.Post(ts.URL+"/v1/layout", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body = %+v", resp.StatusCode, decodeError(t, resp))
	}

	var out LayoutResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.RequestID != resp.Header.Get(RequestIDHeader) {
		t.Errorf("request_id = %q, header = %q", out.RequestID, resp.Header.Get(RequestIDHeader))
	}
	if out.Layout.Algorithm != "forest" {
		t.Errorf("algorithm = %q, want forest", out.Layout.Algorithm)
	}
	n, ok := out.Graph.Node("s0")
	if !ok || n.X != 110 || n.Y != 0 {
		t.Errorf("s0 = %+v, want at (110, 0)", n)
	}
}

func TestLayoutErrors(t *testing.T) {
	ts := testServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"Malformed", `{"graph": `, http.StatusBadRequest, "INVALID_INPUT"},
		{"MissingGraph", `{"options": {}}`, http.StatusBadRequest, "INVALID_INPUT"},
		{"InvalidGraph", `{"graph": {"nodes": [{"id": "a"}, {"id": "a"}], "edges": []}}`, http.StatusBadRequest, "INVALID_GRAPH"},
		{"UnknownAlgorithm", `{"graph": ` + ltsJSON + `, "options": {"algorithm": "radial"}}`, http.StatusBadRequest, "INVALID_ALGORITHM"},
		{"UnknownRoot", `{"graph": ` + ltsJSON + `, "options": {"roots": ["zz"]}}`, http.StatusBadRequest, "UNKNOWN_ROOT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Post(ts.URL+"/v1/layout", "application/json", strings.NewReader(tt.body))
			if err != nil {
				t.Fatal(err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if e := decodeError(t, resp); e.Code != tt.code {
				t.Errorf("code = %q, want %q (%s)", e.Code, tt.code, e.Message)
			}
		})
	}
}

func TestRender(t *testing.T) {
	ts := testServer(t)

	resp, err := http.Post(ts.URL+"/v1/render?format=dot", "application/json", strings.NewReader(ltsJSON))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/vnd.graphviz" {
		t.Errorf("Content-Type = %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if !strings.HasPrefix(string(data), "digraph G {") {
		t.Errorf("body = %.40s", data)
	}

	resp, err = http.Post(ts.URL+"/v1/render?format=gif", "application/json", strings.NewReader(ltsJSON))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("gif status = %d, want 400", resp.StatusCode)
	}
}

func TestRecoverPanics(t *testing.T) {
	s := New(nil, log.New(io.Discard), config.Layout{})
	h := s.recoverPanics(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "INTERNAL_ERROR") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestServeShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	srv := NewHTTPServer(config.Default().Server, http.NotFoundHandler())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, l, time.Second) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
