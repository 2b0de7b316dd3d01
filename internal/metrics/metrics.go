// Package metrics holds the Prometheus collectors shared across the service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// UpstreamRequests counts upstream API calls by endpoint and outcome
	// (success, transient, decode, not_found, rejected).
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cakemap_upstream_requests_total",
		Help: "Total number of upstream catalog API requests",
	}, []string{"endpoint", "outcome"})

	// UpstreamLatency measures upstream call latency.
	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cakemap_upstream_request_duration_seconds",
		Help:    "Upstream catalog API latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cakemap_circuit_breaker_state",
		Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
	}, []string{"name"})

	// SupersededFetches counts region fetches discarded because a newer one was issued.
	SupersededFetches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cakemap_superseded_fetches_total",
		Help: "Total number of shop fetches discarded by last-request-wins",
	})

	// BookmarkToggles counts toggles by resulting state (added, removed) or failure.
	BookmarkToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cakemap_bookmark_toggles_total",
		Help: "Total number of bookmark toggles",
	}, []string{"result"})

	// FeedPages counts feed page loads by outcome (loaded, ignored, failed, discarded).
	FeedPages = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cakemap_feed_pages_total",
		Help: "Total number of feed page load attempts",
	}, []string{"outcome"})

	// DroppedEvents counts bookmark change events dropped because the publish queue was full.
	DroppedEvents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cakemap_dropped_events_total",
		Help: "Total number of bookmark change events dropped before publishing",
	})
)
