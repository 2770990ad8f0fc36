// Package telemetry exposes Prometheus collectors for simulation runs.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
package telemetry

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const namespace = "routesim"

const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

type Metrics struct {
	Steps             *prometheus.CounterVec
	RejectedDecisions *prometheus.CounterVec
	Trials            *prometheus.CounterVec
	TrialDuration     prometheus.Histogram
}

// NewMetrics builds the collectors and registers them on reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "simulation_steps_total",
				Help:      "Simulation steps completed, by strategy",
			},
			[]string{"strategy"},
		),
		RejectedDecisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rejected_decisions_total",
				Help:      "Routing decisions rejected for insufficient cash, by strategy",
			},
			[]string{"strategy"},
		),
		Trials: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "monte_carlo_trials_total",
				Help:      "Monte Carlo trials run, by outcome",
			},
			[]string{"outcome"},
		),
		TrialDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "monte_carlo_trial_duration_seconds",
				Help:      "Wall time of one Monte Carlo trial",
				Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.Steps, m.RejectedDecisions, m.Trials, m.TrialDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) ObserveStep(strategy string) {
	if m == nil {
		return
	}
	m.Steps.WithLabelValues(strategy).Inc()
}

func (m *Metrics) ObserveRejected(strategy string) {
	if m == nil {
		return
	}
	m.RejectedDecisions.WithLabelValues(strategy).Inc()
}

func (m *Metrics) ObserveTrial(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Trials.WithLabelValues(outcome).Inc()
	m.TrialDuration.Observe(elapsed.Seconds())
}

// Serve exposes the registry on addr at /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", zap.String("addr", addr), zap.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Metrics server shutdown", zap.Error(err))
		}
	}()

	logger.Info("Metrics server listening", zap.String("addr", addr))
}
