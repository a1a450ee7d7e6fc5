package gomart

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes stage row counts and durations for Prometheus.
// A nil *Metrics records nothing.
type Metrics struct {
	stageRows     *prometheus.GaugeVec
	stageDuration *prometheus.HistogramVec
	runsTotal     *prometheus.CounterVec
}

// NewMetrics creates and registers pipeline metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stageRows: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gomart",
				Name:      "stage_rows",
				Help:      "Row counts of the last run per stage and kind (in, out, dropped)",
			},
			[]string{"stage", "kind"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gomart",
				Name:      "stage_duration_seconds",
				Help:      "Time taken to compute and materialize a stage",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"stage"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gomart",
				Name:      "runs_total",
				Help:      "Pipeline runs by status",
			},
			[]string{"status"},
		),
	}

	for _, c := range []prometheus.Collector{m.stageRows, m.stageDuration, m.runsTotal} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observeStage(s StageReport) {
	if m == nil {
		return
	}
	m.stageRows.WithLabelValues(s.Name, "in").Set(float64(s.RowsIn))
	m.stageRows.WithLabelValues(s.Name, "out").Set(float64(s.RowsOut))
	m.stageRows.WithLabelValues(s.Name, "dropped").Set(float64(s.Dropped))
	m.stageDuration.WithLabelValues(s.Name).Observe(s.Duration.Seconds())
}

func (m *Metrics) observeRun(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.runsTotal.WithLabelValues(status).Inc()
}
