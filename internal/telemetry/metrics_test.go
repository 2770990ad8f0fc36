package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetrics_Registers(t *testing.T) {
	reg := prometheus.NewRegistry()

	m, err := NewMetrics(reg)
	require.NoError(t, err)

	m.ObserveStep("balanced")
	m.ObserveStep("balanced")
	m.ObserveRejected("balanced")
	m.ObserveTrial(OutcomeSuccess, 10*time.Millisecond)
	m.ObserveTrial(OutcomeFailed, 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Steps.WithLabelValues("balanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RejectedDecisions.WithLabelValues("balanced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Trials.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Trials.WithLabelValues(OutcomeFailed)))

	count, err := testutil.GatherAndCount(reg, "routesim_monte_carlo_trial_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewMetrics(reg)
	require.NoError(t, err)

	_, err = NewMetrics(reg)
	assert.Error(t, err)
}

func TestNewMetrics_NilRegisterer(t *testing.T) {
	m, err := NewMetrics(nil)

	require.NoError(t, err)
	m.ObserveStep("conservative")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Steps.WithLabelValues("conservative")))
}

func TestNilMetrics_NoPanic(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveStep("balanced")
		m.ObserveRejected("balanced")
		m.ObserveTrial(OutcomeSuccess, time.Second)
	})
}
