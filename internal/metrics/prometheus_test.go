package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_Initialization(t *testing.T) {
	pm := NewPrometheusMetrics()
	require.NotNil(t, pm)
	require.NotNil(t, pm.GetRegistry())

	pm.UpdateSystemMetrics()
	before := pm.GetUptime()
	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, pm.GetUptime(), before)
	assert.False(t, pm.GetLastUpdate().IsZero())
}

func TestPrometheusMetrics_ProbeCounters(t *testing.T) {
	pm := NewPrometheusMetrics()

	pm.ObserveProbe("open", "none", 2*time.Millisecond)
	pm.ObserveProbe("failed", "refused", time.Millisecond)
	pm.ObserveProbe("failed", "refused", time.Millisecond)
	pm.ObserveProbe("failed", "timed_out", 200*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.probesTotal.WithLabelValues("open", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(pm.probesTotal.WithLabelValues("failed", "refused")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.probesTotal.WithLabelValues("failed", "timed_out")))
	assert.Equal(t, 2, testutil.CollectAndCount(pm.probeDuration))
}

func TestPrometheusMetrics_ScanCounters(t *testing.T) {
	pm := NewPrometheusMetrics()

	pm.ObserveScan("complete", time.Second)
	pm.ObserveScan("partial", 500*time.Millisecond)
	pm.IncrementScanErrors("resolution")
	pm.SetActiveProbes(7)

	assert.Equal(t, 1.0, testutil.ToFloat64(pm.scansTotal.WithLabelValues("complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.scansTotal.WithLabelValues("partial")))
	assert.Equal(t, 1.0, testutil.ToFloat64(pm.scanErrors.WithLabelValues("resolution")))
	assert.Equal(t, 7.0, testutil.ToFloat64(pm.activeProbes))
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.ObserveProbe("open", "none", time.Millisecond)
	r.SetActiveProbes(1)
	r.ObserveScan("complete", time.Second)
	r.IncrementScanErrors("validation")
}

func TestServer_Routes(t *testing.T) {
	pm := NewPrometheusMetrics()
	pm.ObserveProbe("open", "none", time.Millisecond)
	srv := NewServer("127.0.0.1:0", pm)

	t.Run("metrics", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `portprobe_probe_total{reason="none",state="open"} 1`)
	})

	t.Run("healthz", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "ok\n", rr.Body.String())
	})

	t.Run("wrong method", func(t *testing.T) {
		rr := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/metrics", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})
}

func TestServer_StartStop(t *testing.T) {
	pm := NewPrometheusMetrics()
	srv := NewServer("127.0.0.1:0", pm)
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "portprobe_system_uptime_seconds"))

	require.NoError(t, srv.Stop())
}
