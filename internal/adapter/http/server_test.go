package http_test

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/Karthi-M72/Flight-Crash-Analysis/internal/adapter/http"
	"github.com/Karthi-M72/Flight-Crash-Analysis/internal/pipeline"
)

type mockProgress struct {
	snap pipeline.Progress
}

func (m *mockProgress) Snapshot() pipeline.Progress { return m.snap }

func newTestServer(snap pipeline.Progress) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockProgress{snap: snap}, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(pipeline.Progress{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestRunzReportsProgress(t *testing.T) {
	srv := newTestServer(pipeline.Progress{FilesProcessed: 12, RowsRead: 3400})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/runz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body pipeline.Progress
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, int64(12), body.FilesProcessed)
	assert.Equal(t, int64(3400), body.RowsRead)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(pipeline.Progress{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
