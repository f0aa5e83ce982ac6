package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func value(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestCacheLookup(t *testing.T) {
	hits := value(t, cacheLookupsTotal.WithLabelValues("jobs", "hit"))
	misses := value(t, cacheLookupsTotal.WithLabelValues("jobs", "miss"))

	CacheLookup("jobs", true)
	CacheLookup("jobs", true)
	CacheLookup("jobs", false)

	assert.Equal(t, hits+2, value(t, cacheLookupsTotal.WithLabelValues("jobs", "hit")))
	assert.Equal(t, misses+1, value(t, cacheLookupsTotal.WithLabelValues("jobs", "miss")))
}

func TestObserveRequest(t *testing.T) {
	before := value(t, httpRequestsTotal.WithLabelValues("/api/growth", "GET", "200"))
	ObserveRequest("/api/growth", "GET", 200, 3*time.Millisecond)
	assert.Equal(t, before+1, value(t, httpRequestsTotal.WithLabelValues("/api/growth", "GET", "200")))
}

func TestCounters(t *testing.T) {
	exports := value(t, exportFailuresTotal.WithLabelValues("xlsx"))
	failures := value(t, upstreamRefreshTotal.WithLabelValues("failure"))
	apiErrs := value(t, apiErrorsTotal.WithLabelValues("INPUT_001", "/api/forecast"))

	ExportFailure("xlsx")
	UpstreamRefresh(false)
	APIError("INPUT_001", "/api/forecast")

	assert.Equal(t, exports+1, value(t, exportFailuresTotal.WithLabelValues("xlsx")))
	assert.Equal(t, failures+1, value(t, upstreamRefreshTotal.WithLabelValues("failure")))
	assert.Equal(t, apiErrs+1, value(t, apiErrorsTotal.WithLabelValues("INPUT_001", "/api/forecast")))
}
