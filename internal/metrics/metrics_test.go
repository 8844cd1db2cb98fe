package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// counterValue reads one counter sample out of the gathered registry.
func counterValue(t *testing.T, m *Metrics, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, metric := range mf.GetMetric() {
			for _, lp := range metric.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			return metric.GetCounter().GetValue()
		}
	}
	return 0
}

func TestCounters(t *testing.T) {
	m := New()

	m.ObserveRender("Button", OutcomeOK)
	m.ObserveRender("Button", OutcomeOK)
	m.ObserveValidationFailures("record", 3)
	m.ObserveValidationFailures("record", 0)
	m.ObserveRecordWrite("create", OutcomeRejected)

	assert.Equal(t, 2.0, counterValue(t, m, "nebula_studio_renders_total", map[string]string{"type": "Button", "outcome": OutcomeOK}))
	assert.Equal(t, 3.0, counterValue(t, m, "nebula_studio_validation_failures_total", map[string]string{"source": "record"}))
	assert.Equal(t, 1.0, counterValue(t, m, "nebula_studio_record_writes_total", map[string]string{"op": "create", "outcome": OutcomeRejected}))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRender("Text", OutcomeOK)
		m.ObserveValidationFailures("record", 1)
		m.ObserveRecordWrite("update", OutcomeOK)
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.ObserveRender("AppBar", OutcomeHidden)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `nebula_studio_renders_total{outcome="hidden",type="AppBar"} 1`)
}
