package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c interface{ Write(*dto.Metric) error }) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestRecordSends(t *testing.T) {
	r := NewRegistry()
	r.PacketSubmitted(1, 30)
	r.PacketSubmitted(1, 50)
	r.SubmitFailed(2)

	c, err := r.PacketsSubmitted.GetMetricWithLabelValues("1")
	require.NoError(t, err)
	assert.Equal(t, 2.0, counterValue(t, c))
	assert.Equal(t, 80.0, counterValue(t, r.WireBytes))

	f, err := r.SubmitFailures.GetMetricWithLabelValues("2")
	require.NoError(t, err)
	assert.Equal(t, 1.0, counterValue(t, f))
}

func TestRecordConfirmAndStop(t *testing.T) {
	r := NewRegistry()
	r.SetEnergy(4, 2.0)
	r.PacketConfirmed(4, 1.75, 0.002)
	r.NodeExhausted(4, 35)

	g, err := r.NodeEnergy.GetMetricWithLabelValues("4")
	require.NoError(t, err)
	var m dto.Metric
	require.NoError(t, g.Write(&m))
	assert.Equal(t, 1.75, m.GetGauge().GetValue())

	assert.Equal(t, 1.0, counterValue(t, r.Stops))

	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["wsn_network_lifetime_seconds"])
	assert.True(t, names["wsn_confirm_latency_seconds"])
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := NewRegistry()
	r.MediumTransmission()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "wsn_medium_transmissions_total 1")
}

func TestRegistriesAreIndependent(t *testing.T) {
	a := NewRegistry()
	b := NewRegistry()
	a.Stops.Inc()
	assert.Equal(t, 1.0, counterValue(t, a.Stops))
	assert.Equal(t, 0.0, counterValue(t, b.Stops))
}
