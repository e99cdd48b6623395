package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()

	m.ObserveRequest("list_devices", OutcomeOK, 20*time.Millisecond)
	m.ObserveRequest("list_devices", OutcomeError, time.Millisecond)
	m.Poll("readings", OutcomeStale)
	m.Command(OutcomeOK)
	m.Command(OutcomeOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.gatewayRequests.WithLabelValues("list_devices", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.polls.WithLabelValues("readings", OutcomeStale)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues(OutcomeOK)))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("x", OutcomeOK, 0)
		m.Poll("devices", OutcomeOK)
		m.Command(OutcomeError)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.Command(OutcomeError)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `airsync_commands_total{outcome="error"} 1`))
}
