package report

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	generatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aims_reports_generated_total",
			Help: "Total number of PDF reports generated",
		},
		[]string{"type", "status"},
	)

	generateDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aims_report_generate_duration_seconds",
			Help:    "Time taken to render PDF reports",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	pagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aims_report_pages_total",
			Help: "Total number of PDF pages rendered",
		},
		[]string{"type"},
	)
)
