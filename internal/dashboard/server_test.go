package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/KaramelBytes/callscope/internal/analysis"
	"github.com/KaramelBytes/callscope/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func fixture() *analysis.Frame {
	return analysis.NewFrame("calls.csv",
		[]string{"amount", "timeDuration", "source", "createdAt"},
		[][]string{
			{"10", "5", "app", "2023-12-01 10:00:00"},
			{"20", "10", "web", "2023-12-02 10:00:00"},
			{"30", "15", "web", "2023-12-02 12:00:00"},
		}, analysis.DefaultParseOptions())
}

func newTestServer(t *testing.T, load LoadFunc) (*Server, *int32) {
	t.Helper()
	var calls int32
	s := New(func() (*analysis.Frame, error) {
		atomic.AddInt32(&calls, 1)
		return load()
	}, Config{CacheTTL: time.Minute, Report: report.DefaultOptions()})
	return s, &calls
}

func do(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, nil)
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestPageAndCache(t *testing.T) {
	s, calls := newTestServer(t, func() (*analysis.Frame, error) { return fixture(), nil })

	w := do(s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Call Center Performance Analysis")
	assert.Contains(t, w.Body.String(), "/charts/daily-charges?run=")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(s, http.MethodGet, "/api/report")
	require.Equal(t, http.StatusOK, w.Code)
	var rep map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, float64(3), rep["rows"])

	assert.Equal(t, int32(1), atomic.LoadInt32(calls), "second request is served from cache")
}

func TestRefreshRebuilds(t *testing.T) {
	s, calls := newTestServer(t, func() (*analysis.Frame, error) { return fixture(), nil })
	first, err := s.Report()
	require.NoError(t, err)

	w := do(s, http.MethodPost, "/api/refresh")
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEqual(t, first.RunID, body["run_id"])
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestChartPNG(t *testing.T) {
	s, _ := newTestServer(t, func() (*analysis.Frame, error) { return fixture(), nil })

	w := do(s, http.MethodGet, "/charts/amount-histogram")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(s, http.MethodGet, "/charts/nope")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoadErrorIs500(t *testing.T) {
	s, _ := newTestServer(t, func() (*analysis.Frame, error) { return nil, errors.New("open data file: missing") })
	w := do(s, http.MethodGet, "/api/report")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "missing")
}

func TestPartialReportStillServed(t *testing.T) {
	s, _ := newTestServer(t, func() (*analysis.Frame, error) {
		return analysis.NewFrame("bad.csv", []string{"amount", "timeDuration"}, [][]string{{"ten", "5"}}, analysis.DefaultParseOptions()), nil
	})
	w := do(s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Report-Failure"))
	assert.Contains(t, w.Body.String(), "Report stopped at")
}

func TestHealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(t, func() (*analysis.Frame, error) { return fixture(), nil })
	assert.Equal(t, http.StatusOK, do(s, http.MethodGet, "/healthz").Code)

	do(s, http.MethodGet, "/api/report")
	w := do(s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	out := w.Body.String()
	assert.Contains(t, out, `callscope_report_builds_total{outcome="ok"} 1`)
	assert.Contains(t, out, "callscope_report_rows 3")
	assert.Contains(t, out, `callscope_step_skipped_total{step="connection_time"} 1`)
	assert.True(t, strings.Contains(out, "callscope_report_build_seconds_count 1"))
}

func TestRunShutsDownOnCancel(t *testing.T) {
	s := New(func() (*analysis.Frame, error) { return fixture(), nil }, Config{Addr: "127.0.0.1:0"})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
