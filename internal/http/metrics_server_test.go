package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/fileguard/internal/metrics"
)

func newTestServer(t *testing.T, logger *slog.Logger) *MetricsServer {
	t.Helper()
	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)
	return NewMetricsServer("127.0.0.1", 0, logger, provider)
}

func TestMetricsServer_MetricsEndpoint(t *testing.T) {
	server := newTestServer(t, slog.Default())

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	server.GetHandler().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
}

func TestMetricsServer_Healthz(t *testing.T) {
	server := newTestServer(t, slog.Default())

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.GetHandler().ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "healthy")
}

func TestCustomLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	server := newTestServer(t, logger)

	recorder := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	server.GetHandler().ServeHTTP(recorder, request)

	logged := buf.String()
	assert.Contains(t, logged, "http request")
	assert.Contains(t, logged, "path=/healthz")
	assert.Contains(t, logged, "status=200")
}
