// Package metrics exposes Prometheus counters for tile loading, graph
// mutation and edge computation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TilesLoadedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navgraph_tiles_loaded_total",
		Help: "Total number of tiles loaded and ingested",
	})
	TileLoadFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navgraph_tile_load_failures_total",
		Help: "Total number of tile requests that failed upstream",
	})
	TileLoadDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "navgraph_tile_load_duration_ms",
		Help:    "Tile request plus ingestion duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000, 5000},
	})
	NodesIngestedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navgraph_nodes_ingested_total",
		Help: "Total number of nodes added to the graph",
	})
	NodesPromotedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navgraph_nodes_promoted_total",
		Help: "Total number of nodes promoted to worthy",
	})
	RecordsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "navgraph_records_skipped_total",
		Help: "Total number of malformed image records skipped on ingest",
	})
	EdgeComputeDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "navgraph_edge_compute_duration_ms",
		Help:    "Edge computation duration per node in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 50, 100},
	})
	EdgesComputedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navgraph_edges_computed_total",
		Help: "Total number of edges computed by direction",
	}, []string{"direction"})
	ProviderRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "navgraph_provider_requests_total",
		Help: "Provider requests by operation and outcome",
	}, []string{"op", "outcome"})
	Subscribers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "navgraph_subscribers",
		Help: "Current number of change-notification subscribers",
	})
)

func init() {
	prometheus.MustRegister(TilesLoadedTotal)
	prometheus.MustRegister(TileLoadFailuresTotal)
	prometheus.MustRegister(TileLoadDurationMs)
	prometheus.MustRegister(NodesIngestedTotal)
	prometheus.MustRegister(NodesPromotedTotal)
	prometheus.MustRegister(RecordsSkippedTotal)
	prometheus.MustRegister(EdgeComputeDurationMs)
	prometheus.MustRegister(EdgesComputedTotal)
	prometheus.MustRegister(ProviderRequestsTotal)
	prometheus.MustRegister(Subscribers)
}

func Handler() http.Handler {
	return promhttp.Handler()
}
