package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Lin-Jiong-HDU/jarvis/internal/conversation"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/execution"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/history"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/planner"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/platform"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/script"
	"github.com/Lin-Jiong-HDU/jarvis/internal/core/security"
	"github.com/Lin-Jiong-HDU/jarvis/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type processorFunc func(ctx context.Context, req core.Request) core.Outcome

func (f processorFunc) Process(ctx context.Context, req core.Request) core.Outcome { return f(ctx, req) }

// launchedDispatcher reports every script as launched without starting anything.
type launchedDispatcher struct{}

func (launchedDispatcher) Dispatch(path string, p platform.Platform) *execution.Handle {
	return &execution.Handle{Path: path, Platform: p}
}

func newTestServer(t *testing.T, m *metrics.Metrics) *httptest.Server {
	t.Helper()
	engine := core.NewEngine(
		planner.New(nil),
		security.NewKeywordPolicy(security.DefaultKeywords()),
		script.New(t.TempDir()),
		launchedDispatcher{},
		core.WithMetrics(m),
	)
	var opts []Option
	if m != nil {
		opts = append(opts, WithMetrics(m))
	}
	s := New(engine, conversation.NewResponder(nil), opts...)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestCommand_Fallback(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts.URL+"/command", `{"text":"Open Chrome and go to Gmail","platform":"mac"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, core.MessageExecuted, out["message"])
	assert.Equal(t, "mac", out["platform"])
	assert.Equal(t, false, out["blocked"])
	assert.NotEmpty(t, out["script_path"])
	assert.NotContains(t, out, "reason")
	assert.Equal(t, []any{"Open browser", "Go to https://mail.google.com"}, out["actions"])
}

func TestCommand_UnsupportedPlatformOmitsScriptPath(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts.URL+"/command", `{"text":"open gmail","platform":"linux"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, core.MessageNoScript, out["message"])
	assert.NotContains(t, out, "script_path")
}

func TestCommand_PassesRequest(t *testing.T) {
	var got core.Request
	s := New(processorFunc(func(_ context.Context, req core.Request) core.Outcome {
		got = req
		return core.Outcome{Message: core.MessageBlocked, Platform: "windows", Actions: []string{}, Blocked: true, Reason: "Blocked dangerous keyword: shutdown"}
	}), conversation.NewResponder(nil))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/command", `{"text":"shutdown now","platform":"Win"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, core.Request{Text: "shutdown now", Platform: "Win"}, got)

	var out core.Outcome
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Blocked)
	assert.Contains(t, out.Reason, "shutdown")
}

func TestBadRequests(t *testing.T) {
	ts := newTestServer(t, nil)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"command empty text", "/command", `{"text":""}`},
		{"command blank text", "/command", `{"text":"   "}`},
		{"command missing text", "/command", `{"platform":"mac"}`},
		{"command invalid json", "/command", `{"text":`},
		{"chat empty text", "/chat", `{"text":""}`},
		{"chat invalid json", "/chat", `nope`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var e errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestChat_Fallback(t *testing.T) {
	ts := newTestServer(t, nil)

	resp := post(t, ts.URL+"/chat", `{"text":"who are you?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply conversation.Reply
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&reply))
	assert.Equal(t, "I'm Jarvis, your personal AI assistant.", reply.Message)
	assert.Equal(t, "Jarvis", reply.From)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok"}`, string(body))
}

func TestCORS(t *testing.T) {
	ts := newTestServer(t, nil)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/command", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")

	get, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, "*", get.Header.Get("Access-Control-Allow-Origin"))
}

func TestRequestID(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Len(t, resp.Header.Get(RequestIDHeader), 36)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, "abc-123", resp2.Header.Get(RequestIDHeader))
}

func TestRecoversPanics(t *testing.T) {
	s := New(processorFunc(func(context.Context, core.Request) core.Outcome {
		panic("boom")
	}), conversation.NewResponder(nil))
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/command", `{"text":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	// The server keeps serving.
	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	ts := newTestServer(t, m)

	post(t, ts.URL+"/command", `{"text":"Open Chrome","platform":"windows"}`)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "jarvis_commands_total")
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestListenAndServe_Shutdown(t *testing.T) {
	s := New(processorFunc(func(context.Context, core.Request) core.Outcome { return core.Outcome{} }), conversation.NewResponder(nil))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

type fixedHistory []*history.Entry

func (f fixedHistory) Recent(n int) []*history.Entry {
	if n <= 0 || n > len(f) {
		return f
	}
	return f[len(f)-n:]
}

func TestHistoryEndpoint(t *testing.T) {
	entries := fixedHistory{
		{ID: "1", Text: "open gmail", Status: history.StatusExecuted},
		{ID: "2", Text: "shutdown", Status: history.StatusBlocked},
	}
	engine := core.NewEngine(planner.New(nil), nil, script.New(t.TempDir()), launchedDispatcher{})
	ts := httptest.NewServer(New(engine, conversation.NewResponder(nil), WithHistory(entries)).Handler())
	t.Cleanup(ts.Close)

	resp, err := http.Get(ts.URL + "/history?limit=1")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Entries []history.Entry `json:"entries"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Entries, 1)
	assert.Equal(t, "shutdown", body.Entries[0].Text)
	assert.Equal(t, history.StatusBlocked, body.Entries[0].Status)

	bad, err := http.Get(ts.URL + "/history?limit=abc")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)
}

func TestHistoryEndpoint_Disabled(t *testing.T) {
	ts := newTestServer(t, nil)

	resp, err := http.Get(ts.URL + "/history")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
