// Package metrics exposes the Prometheus registry shared by the auction
// monitor. All metrics are defined in their respective packages (client,
// auction, runguard, monitor) to maintain modularity and avoid circular
// dependencies.
//
// This package provides the HTTP handler and the reference for all
// available metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the auction monitor.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Gatherer collects everything registered on Registry.
var Gatherer = prometheus.DefaultGatherer

// Handler serves the registered metrics in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Gatherer, promhttp.HandlerOpts{})
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - marketplace_requests_total{route, status} (Counter): Requests by route and HTTP status
//   - marketplace_request_duration_seconds{route} (Histogram): Request duration by route
//   - marketplace_errors_total{class} (Counter): Errors by class (client, server, network)
//
// Gateway Metrics (pkg/auction):
//   - auction_authentications_total{result} (Counter): Authentication attempts by result
//   - auction_pages_fetched_total (Counter): Auction pages received
//   - auction_fetch_failures_total{kind} (Counter): Failed fetches by error kind
//
// Cycle Lock Metrics (pkg/runguard):
//   - auction_monitor_cycle_lock_acquisitions_total{result} (Counter): Lock attempts by result
//   - auction_monitor_cycle_lock_held (Gauge): 1 while this process holds the lock
//
// Monitor Metrics (internal/monitor):
//   - auction_monitor_cycles_total{result} (Counter): Cycles by result
//   - auction_monitor_cycle_duration_seconds (Histogram): Cycle duration
//   - auction_monitor_auctions (Gauge): Running auctions in the last successful cycle
//   - auction_monitor_average_bids (Gauge): Average bids per auction
//   - auction_monitor_average_progress_percent (Gauge): Average auction progress
//   - auction_monitor_last_success_timestamp_seconds (Gauge): Time of the last successful cycle
//
// Example Prometheus Queries:
//
//   # Cycle Failure Rate
//   rate(auction_monitor_cycles_total{result="failure"}[1h])
//
//   # Stale Monitor (no success for 2h)
//   time() - auction_monitor_last_success_timestamp_seconds > 7200
//
//   # Marketplace Error Rate
//   rate(marketplace_errors_total[5m])
//
//   # P95 Request Latency
//   histogram_quantile(0.95, rate(marketplace_request_duration_seconds_bucket[5m]))
