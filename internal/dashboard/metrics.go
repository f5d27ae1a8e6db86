package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	builds       *prometheus.CounterVec
	buildSeconds prometheus.Histogram
	rows         prometheus.Gauge
	skipped      *prometheus.CounterVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		builds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "callscope_report_builds_total",
			Help: "Report builds by outcome (ok, partial, error).",
		}, []string{"outcome"}),
		buildSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "callscope_report_build_seconds",
			Help:    "Time spent loading the source and building the report.",
			Buckets: prometheus.DefBuckets,
		}),
		rows: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "callscope_report_rows",
			Help: "Rows in the most recently loaded source.",
		}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "callscope_step_skipped_total",
			Help: "Report steps skipped because required columns were missing.",
		}, []string{"step"}),
	}
	reg.MustRegister(m.builds, m.buildSeconds, m.rows, m.skipped)
	return m
}
