package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/go-rollup/internal/metrics"
)

func TestObserveAuth(t *testing.T) {
	before := testutil.ToFloat64(metrics.AuthRequests.WithLabelValues("local", metrics.ResultOK))
	metrics.ObserveAuth("local", metrics.ResultOK, time.Now())
	assert.InDelta(t, before+1, testutil.ToFloat64(metrics.AuthRequests.WithLabelValues("local", metrics.ResultOK)), 0)
}

func TestHandlerExposesCounters(t *testing.T) {
	metrics.Resubmissions.Inc()

	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "rollup_resubmissions_total"))
}
