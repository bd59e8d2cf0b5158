// Copyright (c) 2022 The Daotrack developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopByDefault(t *testing.T) {
	// must not panic, must not serve metrics
	Counter("noop_counter_count").Add(1)
	GaugeVec("noop_gauge_vec", []string{"a"}).SetWithLabel(1, map[string]string{"a": "b"})

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestPrometheusMeters(t *testing.T) {
	InitializePrometheusMetrics()
	// second call must keep the same backend
	InitializePrometheusMetrics()

	Counter("events_applied_count").Add(3)
	Counter("events_applied_count").Add(2)
	CounterVec("apply_errors_count", []string{"reason"}).AddWithLabel(1, map[string]string{"reason": "unknown_account"})
	Gauge("head_block_gauge").Set(1234)
	Histogram("batch_duration_ms", BucketScanBatch).Observe(42)

	rec := httptest.NewRecorder()
	HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(rec.Body)
	require.NoError(t, err)

	counter, ok := families["daotrack_events_applied_count"]
	require.True(t, ok, "counter family missing")
	assert.Equal(t, float64(5), counter.GetMetric()[0].GetCounter().GetValue())

	gauge, ok := families["daotrack_head_block_gauge"]
	require.True(t, ok, "gauge family missing")
	assert.Equal(t, float64(1234), gauge.GetMetric()[0].GetGauge().GetValue())

	errs, ok := families["daotrack_apply_errors_count"]
	require.True(t, ok, "counter vec family missing")
	require.Len(t, errs.GetMetric()[0].GetLabel(), 1)
	assert.Equal(t, "unknown_account", errs.GetMetric()[0].GetLabel()[0].GetValue())
}
