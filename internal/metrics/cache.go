// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "loomsrc_cache_requests_total",
	Help: "Decompile cache lookups by store and result (hit, miss, error).",
}, []string{"store", "result"})

// IncCacheHit records a cache lookup that returned a unit.
func IncCacheHit(store string) { cacheRequests.WithLabelValues(store, "hit").Inc() }

// IncCacheMiss records a cache lookup that found nothing.
func IncCacheMiss(store string) { cacheRequests.WithLabelValues(store, "miss").Inc() }

// IncCacheError records a failed cache read or write.
func IncCacheError(store string) { cacheRequests.WithLabelValues(store, "error").Inc() }
