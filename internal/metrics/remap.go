// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var remapUnits = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "loomsrc_remap_units_total",
	Help: "Units seen by the source remapper by outcome (remapped, unchanged, passthrough, failed).",
}, []string{"outcome"})

// IncRemap records one unit handled by the source remapper.
func IncRemap(outcome string) {
	remapUnits.WithLabelValues(outcome).Inc()
}
