package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"easyhomes/pkg/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestApp(t *testing.T, overrides map[string]interface{}) *App {
	t.Helper()

	v := viper.New()
	config.SetDefaults(v)
	v.Set("DB_DSN", "file:"+t.Name()+"?mode=memory&cache=shared")
	v.Set("LOG_LEVEL", "silent")
	for k, val := range overrides {
		v.Set(k, val)
	}
	cfg, err := config.FromViper(v)
	require.NoError(t, err)

	app, err := NewApp(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

func TestHealthCheck(t *testing.T) {
	app := newTestApp(t, nil)

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/health", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "disabled", body["rabbitmq"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t, nil)

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/homes/get", nil), -1)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/metrics", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `easyhomes_http_requests_total{method="GET",path="/homes/get",status="200"} 1`)
}

func TestUnknownRoute(t *testing.T) {
	app := newTestApp(t, nil)

	resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Route not found", body["message"])
}

func TestCommitRateLimit(t *testing.T) {
	app := newTestApp(t, map[string]interface{}{"COMMIT_RATE_LIMIT": 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Fiber.Test(httptest.NewRequest(http.MethodPost, "/commit/post", nil), -1)
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	// the first two reach the handler and fail validation
	assert.Equal(t, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusTooManyRequests}, codes)
}

func TestNewBlobStoreRejectsUnknownDriver(t *testing.T) {
	_, err := newBlobStore(context.Background(), config.BlobConfig{Driver: "ftp"})
	assert.Error(t, err)
}
