// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	engineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loomsrc_engine_runs_total",
		Help: "External decompiler engine invocations by backend and outcome.",
	}, []string{"backend", "outcome"})

	procTerminate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loomsrc_engine_terminate_total",
		Help: "Signals sent to engine process groups by signal and result.",
	}, []string{"signal", "result"})

	procWait = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "loomsrc_engine_wait_total",
		Help: "Engine process exits observed after termination, by result.",
	}, []string{"result"})
)

// IncEngineRun records one external engine invocation.
func IncEngineRun(backend, outcome string) {
	engineRuns.WithLabelValues(backend, outcome).Inc()
}

// IncProcTerminate records a termination signal sent to a process group.
func IncProcTerminate(signal, result string) {
	procTerminate.WithLabelValues(signal, result).Inc()
}

// IncProcWait records how a terminated process exited.
func IncProcWait(result string) {
	procWait.WithLabelValues(result).Inc()
}
