package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/spigell/matchday/internal/matching"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Metrics describes the last matching round. Runs are short lived, so the values are
// exported through a node_exporter textfile instead of an HTTP endpoint.
type Metrics struct {
	registry *prometheus.Registry

	Applicants  prometheus.Gauge
	Pairs       prometheus.Gauge
	Unmatched   prometheus.Gauge
	Edges       prometheus.Gauge
	MatchRate   prometheus.Gauge
	Runs        *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastRun     prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Applicants: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchday_round_applicants",
			Help: "Number of applicants in the last matched round",
		}),
		Pairs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchday_round_pairs",
			Help: "Number of couples matched in the last round",
		}),
		Unmatched: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchday_round_unmatched",
			Help: "Number of applicants left without a partner in the last round",
		}),
		Edges: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchday_round_compatible_pairs",
			Help: "Number of mutually compatible male and female pairs in the last round",
		}),
		MatchRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchday_round_match_rate",
			Help: "Share of applicants matched in the last round",
		}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "matchday_runs_total",
			Help: "Total number of matching runs by status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchday_run_duration_seconds",
			Help:    "Duration of a matching run including filtering",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10},
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "matchday_last_run_timestamp_seconds",
			Help: "Unix time of the last matching run",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveResult(result *matching.Result) {
	m.Applicants.Set(float64(result.Summary.Applicants))
	m.Pairs.Set(float64(result.Summary.Pairs))
	m.Unmatched.Set(float64(result.Summary.Unmatched))
	m.Edges.Set(float64(result.Summary.Edges))
	m.MatchRate.Set(result.MatchRate())
}

// ObserveRun records a finished run started at start. A nil err counts as success.
func (m *Metrics) ObserveRun(start time.Time, err error) {
	status := StatusSuccess
	if err != nil {
		status = StatusError
	}
	m.Runs.WithLabelValues(status).Inc()
	m.RunDuration.Observe(time.Since(start).Seconds())
	m.LastRun.SetToCurrentTime()
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
