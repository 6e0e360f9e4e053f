package metrics

import (
	"context"
	"errors"
	"time"
	"ulascansenturk/weather-collector/internal/providers"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const (
	OutcomeSuccess          = "success"
	OutcomeConnectionFailed = "connection_failed"
	OutcomeBadStatus        = "bad_status"
	OutcomeError            = "error"
)

type Recorder struct {
	registry *prometheus.Registry
	pusher   *push.Pusher

	fetches       *prometheus.CounterVec
	rowsPersisted *prometheus.CounterVec
	persistErrors *prometheus.CounterVec
	cycleDuration prometheus.Histogram
}

// NewRecorder builds a recorder on its own registry. When pushgatewayURL is
// non-empty, Push sends the registry to that gateway under job.
func NewRecorder(pushgatewayURL, job string) *Recorder {
	registry := prometheus.NewRegistry()

	r := &Recorder{
		registry: registry,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_collector_fetch_total",
			Help: "Weather API fetches by query kind and outcome.",
		}, []string{"kind", "outcome"}),
		rowsPersisted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_collector_rows_persisted_total",
			Help: "Rows written per table.",
		}, []string{"table"}),
		persistErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "weather_collector_persist_errors_total",
			Help: "Failed bulk inserts per table.",
		}, []string{"table"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "weather_collector_cycle_duration_seconds",
			Help:    "Duration of a full fetch and persist cycle.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
	}

	registry.MustRegister(r.fetches, r.rowsPersisted, r.persistErrors, r.cycleDuration)

	if pushgatewayURL != "" {
		r.pusher = push.New(pushgatewayURL, job).Gatherer(registry)
	}

	return r
}

func (r *Recorder) ObserveFetch(kind string, err error) {
	r.fetches.WithLabelValues(kind, outcome(err)).Inc()
}

func (r *Recorder) ObservePersist(table string, rows int, err error) {
	if err != nil {
		r.persistErrors.WithLabelValues(table).Inc()
		return
	}

	r.rowsPersisted.WithLabelValues(table).Add(float64(rows))
}

func (r *Recorder) ObserveCycle(d time.Duration) {
	r.cycleDuration.Observe(d.Seconds())
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Push is a no-op when no gateway is configured.
func (r *Recorder) Push(ctx context.Context) error {
	if r.pusher == nil {
		return nil
	}

	return r.pusher.PushContext(ctx)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, providers.ErrConnection):
		return OutcomeConnectionFailed
	case errors.Is(err, providers.ErrBadStatus):
		return OutcomeBadStatus
	default:
		return OutcomeError
	}
}
