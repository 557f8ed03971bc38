// Package metrics exposes Prometheus collectors for scans and deletions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mediasweep"

var (
	predicateChecks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "predicate_checks_total",
		Help:      "Reference predicate evaluations by predicate and outcome.",
	}, []string{"predicate", "outcome"})

	predicateDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "predicate_duration_seconds",
		Help:      "Time spent evaluating a reference predicate.",
		Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
	}, []string{"predicate"})

	scans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scans_total",
		Help:      "Completed collection passes by result.",
	}, []string{"result"})

	lastScanUnused = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_scan_unused_images",
		Help:      "Number of unused images found by the last completed scan.",
	})

	deletions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deletions_total",
		Help:      "Attachment deletions by result.",
	}, []string{"result"})
)

// ObservePredicate records one predicate evaluation. outcome is "referenced", "clear" or "error".
func ObservePredicate(name string, outcome string, elapsed time.Duration) {
	predicateChecks.WithLabelValues(name, outcome).Inc()
	predicateDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func ObserveScan(err error, unused int) {
	if err != nil {
		scans.WithLabelValues("error").Inc()
		return
	}
	scans.WithLabelValues("ok").Inc()
	lastScanUnused.Set(float64(unused))
}

func ObserveDeletion(err error) {
	if err != nil {
		deletions.WithLabelValues("error").Inc()
		return
	}
	deletions.WithLabelValues("ok").Inc()
}
