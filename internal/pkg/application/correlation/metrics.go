package correlation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "correlation",
		Name:      "queries_total",
		Help:      "Number of alarm queries issued while expanding correlation groups.",
	}, []string{"result"})

	groupSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "correlation",
		Name:      "group_size",
		Help:      "Number of alarms in fetched correlation groups.",
		Buckets:   []float64{1, 2, 5, 10, 25, 50, 100, 250},
	})
)
