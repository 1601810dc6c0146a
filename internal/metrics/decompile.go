// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package metrics provides Prometheus metrics for the decompile pipeline.
// Labels are bounded: backend identifiers, outcomes and states only, never
// class names or run ids.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loomsrc_runs_total",
		Help: "Decompile runs by backend and outcome (completed, failed, rejected).",
	}, []string{"backend", "outcome"})

	runDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loomsrc_run_duration_seconds",
		Help:    "Wall time of decompile runs that reached dispatch.",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"backend"})

	classesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loomsrc_classes_total",
		Help: "Class groups emitted by backend and result (ok, partial, cached).",
	}, []string{"backend", "result"})

	classDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "loomsrc_class_duration_seconds",
		Help:    "Time spent decompiling a single class group.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{"backend"})

	workersBusy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "loomsrc_workers_busy",
		Help: "Class groups currently being decompiled across all runs.",
	})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loomsrc_run_transitions_total",
		Help: "Orchestrator state transitions.",
	}, []string{"from", "to"})
)

// IncRun records the final outcome of a run.
func IncRun(backend, outcome string) {
	runsTotal.WithLabelValues(backend, outcome).Inc()
}

// ObserveRunDuration records the wall time of a dispatched run.
func ObserveRunDuration(backend string, d time.Duration) {
	runDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// IncClass records one emitted unit.
func IncClass(backend, result string) {
	classesTotal.WithLabelValues(backend, result).Inc()
}

// ObserveClassDuration records the time spent on one class group.
func ObserveClassDuration(backend string, d time.Duration) {
	classDuration.WithLabelValues(backend).Observe(d.Seconds())
}

// WorkerStarted and WorkerDone bracket one class group on a worker.
func WorkerStarted() { workersBusy.Inc() }

// WorkerDone marks the end of a class group started with WorkerStarted.
func WorkerDone() { workersBusy.Dec() }

// IncTransition records an orchestrator state change.
func IncTransition(from, to string) {
	transitionsTotal.WithLabelValues(from, to).Inc()
}
