package router_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/api"
	"github/chapool/go-rollup/internal/config"
	"github/chapool/go-rollup/internal/test"
)

func TestMetricsRoute(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true

	test.WithTestServerConfigurable(t, cfg, test.NewOperator(), func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)

		res = test.PerformRequest(t, s, "GET", "/metrics", nil, nil)
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Contains(t, res.Body.String(), "rollup_http_requests_total")
	})
}

func TestMetricsRouteDisabled(t *testing.T) {
	test.WithTestServer(t, test.NewOperator(), func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/metrics", nil, nil)
		require.Equal(t, http.StatusNotFound, res.Result().StatusCode)
	})
}

func TestUnknownRouteUsesErrorBody(t *testing.T) {
	test.WithTestServer(t, test.NewOperator(), func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/api/v1/nope", nil, nil)
		require.Equal(t, http.StatusNotFound, res.Result().StatusCode)
		assert.JSONEq(t, `{"status":404,"type":"generic","title":"Not Found"}`, res.Body.String())
	})
}

func TestRequestIDHeader(t *testing.T) {
	test.WithTestServer(t, test.NewOperator(), func(s *api.Server) {
		res := test.PerformRequest(t, s, "GET", "/-/healthy", nil, http.Header{"X-Request-Id": []string{"req-1"}})
		require.Equal(t, http.StatusOK, res.Result().StatusCode)
		assert.Equal(t, "req-1", res.Header().Get("X-Request-Id"))
	})
}
