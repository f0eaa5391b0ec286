// Package metrics exposes Prometheus collectors for the ingestion pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChannelsStored is the size of the channel set written by the last refresh.
	ChannelsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guidevault_channels_stored",
		Help: "Number of channel entries written by the last refresh",
	})

	// ProgrammesStored is the size of the programme set written by the last refresh.
	ProgrammesStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "guidevault_programmes_stored",
		Help: "Number of programme entries written by the last refresh",
	})

	// FetchAttempts counts feed fetch attempts per cache key.
	FetchAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidevault_fetch_attempts_total",
		Help: "Total number of feed fetch attempts",
	}, []string{"feed"})

	// FetchFailures counts fetches that exhausted all retries.
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidevault_fetch_failures_total",
		Help: "Total number of feed fetches that exhausted all retries",
	}, []string{"feed"})

	// RefreshCycles counts refresh cycles by outcome ("ok", "partial", "skipped").
	RefreshCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidevault_refresh_cycles_total",
		Help: "Total number of refresh cycles by outcome",
	}, []string{"outcome"})

	// RefreshDuration observes wall-clock duration of complete refresh cycles.
	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "guidevault_refresh_duration_seconds",
		Help:    "Duration of refresh cycles in seconds",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// ParseErrors counts per-element parse failures by feed ("xmltv_channel",
	// "xmltv_programme").
	ParseErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "guidevault_parse_errors_total",
		Help: "Total number of single-element parse failures",
	}, []string{"element"})
)
