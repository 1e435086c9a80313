// Package metrics holds the prometheus collectors of the resource pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Cache lookup results.
const (
	Hit     = "hit"
	Miss    = "miss"
	Stale   = "stale"
	Corrupt = "corrupt"
	Raw     = "raw"
)

// Fetch outcomes.
const (
	OK    = "ok"
	Error = "error"
)

var (
	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otakurealm_cache_lookups_total",
			Help: "Cache lookups by resource kind and result",
		},
		[]string{"kind", "result"},
	)

	CacheSaveFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otakurealm_cache_save_failures_total",
			Help: "Records that were parsed but could not be written to the cache",
		},
		[]string{"kind"},
	)

	Fetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otakurealm_fetches_total",
			Help: "Upstream fetches by resource kind, transport and outcome",
		},
		[]string{"kind", "transport", "outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "otakurealm_fetch_duration_seconds",
			Help:    "Upstream fetch latency",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 90},
		},
		[]string{"transport"},
	)

	ParseFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otakurealm_parse_failures_total",
			Help: "Fetched pages whose root anchor was missing",
		},
		[]string{"kind"},
	)

	BranchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "otakurealm_aggregate_branch_failures_total",
			Help: "Failed aggregate branches by branch name and role",
		},
		[]string{"branch", "role"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
