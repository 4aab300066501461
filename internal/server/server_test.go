package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sqlra/internal/diag"
	"github.com/roach88/sqlra/internal/pipeline"
	"github.com/roach88/sqlra/internal/store"
	"github.com/roach88/sqlra/internal/testutil"
)

type recordingHistory struct {
	mu   sync.Mutex
	rows []store.Conversion
}

func (h *recordingHistory) Record(_ context.Context, c store.Conversion) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.rows = append(h.rows, c)
	return int64(len(h.rows)), nil
}

func newTestServer(t *testing.T, conf Config) *Server {
	t.Helper()
	conf.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	if conf.IDs == nil {
		conf.IDs = testutil.NewSequenceIDGenerator("req")
	}
	s, err := New(conf)
	require.NoError(t, err)
	return s
}

func body(t *testing.T, sql string) io.Reader {
	t.Helper()
	b, err := json.Marshal(map[string]any{
		"tables":   testutil.ShopSchema().Tables,
		"sqlQuery": sql,
	})
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func post(t *testing.T, s *Server, path string, r io.Reader) (*httptest.ResponseRecorder, pipeline.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, r)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	var resp pipeline.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec, resp
}

func TestConvertAcceptedQuery(t *testing.T) {
	s := newTestServer(t, Config{})

	rec, resp := post(t, s, "/api/sql/convert", body(t, "SELECT name FROM Users WHERE age > 18"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "req-1", rec.Header().Get(RequestIDHeader))
	assert.Equal(t, "req-1", resp.RequestID)
	assert.True(t, resp.Valid)
	assert.Equal(t, "π[name](σ[age > 18](Users))", resp.AR)
	require.Len(t, resp.Steps, 3)
	assert.Equal(t, "FROM Users", resp.Steps[0].Label)
	assert.Contains(t, rec.Body.String(), "σ[age > 18]", "operators must not be HTML-escaped")
}

func TestConvertRejectedQuery(t *testing.T) {
	s := newTestServer(t, Config{})

	rec, resp := post(t, s, "/api/sql/convert", body(t, "SELECT * FROM Userz"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Valid)
	assert.Empty(t, resp.AR)
	assert.Empty(t, resp.Steps)
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, diag.KindLogic, resp.Diagnostics[0].Kind)
	assert.Equal(t, "Table not found: Userz (did you mean Users?)", resp.Diagnostics[0].Message)
}

func TestSyntaxEndpointReturnsDiagnosticsOnly(t *testing.T) {
	s := newTestServer(t, Config{})

	rec, resp := post(t, s, "/api/sql/syntax", body(t, "SELECT name FROM Users"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Valid)
	assert.Empty(t, resp.AR)
	require.NotEmpty(t, resp.Diagnostics)
	assert.Equal(t, pipeline.MsgValid, resp.Diagnostics[len(resp.Diagnostics)-1].Message)
}

func TestBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "malformed json", body: `{"tables": [`, want: "invalid request body: "},
		{name: "empty body", body: ``, want: "invalid request body: empty body"},
		{name: "wrong field type", body: `{"sqlQuery": 7}`, want: "invalid request body: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, Config{})
			rec, resp := post(t, s, "/api/sql/convert", strings.NewReader(tt.body))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.False(t, resp.Valid)
			require.Len(t, resp.Diagnostics, 1)
			assert.True(t, strings.HasPrefix(resp.Diagnostics[0].Message, tt.want), resp.Diagnostics[0].Message)
			assert.Equal(t, 1.0, promtestutil.ToFloat64(s.metrics.requests.WithLabelValues(EndpointConvert, outcomeBadRequest)))
		})
	}
}

func TestMissingTablesIsASchemaError(t *testing.T) {
	s := newTestServer(t, Config{})

	rec, resp := post(t, s, "/api/sql/syntax", strings.NewReader(`{"sqlQuery": "SELECT 1"}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotEmpty(t, resp.Diagnostics)
	assert.Equal(t, "At least one table must be defined.", resp.Diagnostics[0].Message)
}

func TestClientRequestIDIsKept(t *testing.T) {
	s := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodPost, "/api/sql/convert", body(t, "SELECT name FROM Users"))
	req.Header.Set(RequestIDHeader, "client-42")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, "client-42", rec.Header().Get(RequestIDHeader))
	var resp pipeline.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "client-42", resp.RequestID)
}

func TestResponseCache(t *testing.T) {
	s := newTestServer(t, Config{CacheSize: 8})
	sql := "SELECT u.name FROM Users u WHERE u.age > 18"

	_, first := post(t, s, "/api/sql/convert", body(t, sql))
	_, second := post(t, s, "/api/sql/convert", body(t, sql))
	_, other := post(t, s, "/api/sql/syntax", body(t, sql))

	assert.Equal(t, "req-1", first.RequestID)
	assert.Equal(t, "req-2", second.RequestID)
	assert.Equal(t, first.AR, second.AR)
	assert.Equal(t, first.Steps, second.Steps)
	assert.Empty(t, other.AR, "endpoints must not share cache entries")
	assert.Equal(t, 2, s.cache.len())
	assert.Equal(t, 1.0, promtestutil.ToFloat64(s.metrics.cacheHits.WithLabelValues(EndpointConvert)))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(s.metrics.cacheMisses.WithLabelValues(EndpointConvert)))
	assert.Equal(t, 1.0, promtestutil.ToFloat64(s.metrics.cacheMisses.WithLabelValues(EndpointSyntax)))
}

func TestCacheDisabled(t *testing.T) {
	s := newTestServer(t, Config{})
	post(t, s, "/api/sql/convert", body(t, "SELECT name FROM Users"))
	assert.Nil(t, s.cache)
	assert.Equal(t, 0, s.cache.len())
}

func TestHistoryRecordsConvertRequests(t *testing.T) {
	h := &recordingHistory{}
	s := newTestServer(t, Config{History: h})

	post(t, s, "/api/sql/convert", body(t, "SELECT name FROM Users"))
	post(t, s, "/api/sql/convert", body(t, "SELECT nope FROM Users"))
	post(t, s, "/api/sql/syntax", body(t, "SELECT name FROM Users"))

	require.Len(t, h.rows, 2)
	assert.Equal(t, "req-1", h.rows[0].ID)
	assert.True(t, h.rows[0].Valid)
	assert.Equal(t, "π[name](Users)", h.rows[0].AR)
	assert.NotEmpty(t, h.rows[0].SchemaHash)
	assert.False(t, h.rows[1].Valid)
	assert.Equal(t, "SELECT nope FROM Users", h.rows[1].SQL)
}

func TestAuxiliaryRoutes(t *testing.T) {
	s := newTestServer(t, Config{Version: "1.2.3"})
	post(t, s, "/api/sql/convert", body(t, "SELECT name FROM Users"))

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	status := get("/status")
	assert.Equal(t, http.StatusOK, status.Code)
	assert.Equal(t, "ok", status.Body.String())

	version := get("/version")
	assert.JSONEq(t, `{"version": "1.2.3"}`, version.Body.String())

	metrics := get("/metrics")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `sqlra_requests_total{endpoint="convert",outcome="valid"} 1`)
	assert.Contains(t, metrics.Body.String(), "sqlra_request_duration_seconds")

	notAllowed := get("/api/sql/convert")
	assert.Equal(t, http.StatusMethodNotAllowed, notAllowed.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Config{})
	req := httptest.NewRequest(http.MethodOptions, "/api/sql/convert", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSRestrictedOrigin(t *testing.T) {
	s := newTestServer(t, Config{CORSOrigins: []string{"https://app.example"}})
	req := httptest.NewRequest(http.MethodPost, "/api/sql/convert", body(t, "SELECT name FROM Users"))
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicCatchMiddleware(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := requestIDMiddleware(testutil.NewFixedIDGenerator("boom-1"))(
		panicCatchMiddleware(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		})),
	)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sql/convert", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp pipeline.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "boom-1", resp.RequestID)
	assert.Equal(t, MsgInternal, resp.Diagnostics[0].Message)
	assert.Contains(t, logs.String(), "kaboom")
	assert.NotContains(t, rec.Body.String(), "kaboom")
}

func TestAccessLogRecordsStatus(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	h := accessLogMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		io.WriteString(w, "tea")
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Contains(t, logs.String(), "status_code=418")
	assert.Contains(t, logs.String(), "response_content_length=3")
}
