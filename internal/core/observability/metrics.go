// Package observability holds the service's Prometheus collectors and the
// helpers that record into them.
package observability

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"method", "route", "status"},
	)

	codecOpsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digipin_codec_ops_total",
			Help: "Encode/decode calls by outcome.",
		},
		[]string{"op", "outcome"},
	)

	codecDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "digipin_codec_duration_seconds",
			Help:    "Duration of encode/decode calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(1e-7, 4, 10),
		},
		[]string{"op"},
	)

	cacheResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_results_total",
			Help: "Cache results by outcome.",
		},
		[]string{"outcome"},
	)

	cacheOpTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_op_total",
			Help: "Cache backend operations by result.",
		},
		[]string{"op", "result"},
	)

	redisOpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redis_operation_duration_seconds",
			Help:    "Latency of redis operations in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 14),
		},
		[]string{"op"},
	)

	hotKeys = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "hot_keys",
			Help: "Number of tracked area prefixes.",
		},
		[]string{"tier"},
	)

	eventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "lookup_events_dropped_total",
			Help: "Lookup events dropped because the publish queue was full.",
		},
	)

	eventsConsumeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lookup_events_consume_errors_total",
			Help: "Lookup events the hotness consumer could not use, by kind.",
		},
		[]string{"kind"},
	)

	buildInfo = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "digipin_build_info",
			Help: "Build information for the binary.",
		},
		[]string{"version"},
	)
)

func collectors() []prometheus.Collector {
	return []prometheus.Collector{
		httpRequestsTotal, httpRequestDurationSeconds,
		codecOpsTotal, codecDurationSeconds,
		cacheResults, cacheOpTotal, redisOpDurationSeconds,
		hotKeys, eventsDropped, eventsConsumeErrors, buildInfo,
	}
}

// Init registers the collectors on reg, or on the default registerer when
// reg is nil. With enabled=false nothing is registered and observations are
// kept in memory only.
func Init(reg prometheus.Registerer, enabled bool) {
	if !enabled {
		return
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range collectors() {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				panic(err)
			}
		}
	}
}

func ObserveHTTP(method, route string, status int, durationSeconds float64) {
	st := strconv.Itoa(status)
	httpRequestsTotal.WithLabelValues(method, route, st).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route, st).Observe(durationSeconds)
}

// ObserveCodec records one encode or decode call. outcome is "ok" or an
// error kind.
func ObserveCodec(op, outcome string, durationSeconds float64) {
	codecOpsTotal.WithLabelValues(op, outcome).Inc()
	codecDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func IncCacheHit()  { cacheResults.WithLabelValues("hit").Inc() }
func IncCacheMiss() { cacheResults.WithLabelValues("miss").Inc() }

// IncCacheOp counts a cache backend operation without timing it. The
// in-process LRU uses this.
func IncCacheOp(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	cacheOpTotal.WithLabelValues(op, result).Inc()
}

// ObserveCacheOp counts a redis operation and records its latency.
func ObserveCacheOp(op string, err error, durationSeconds float64) {
	IncCacheOp(op, err)
	redisOpDurationSeconds.WithLabelValues(op).Observe(durationSeconds)
}

func SetHotKeysGauge(tier string, n int) {
	hotKeys.WithLabelValues(tier).Set(float64(n))
}

func IncEventsDropped() { eventsDropped.Inc() }

func IncEventsConsumeError(kind string) { eventsConsumeErrors.WithLabelValues(kind).Inc() }

func ExposeBuildInfo(version string) {
	if version == "" {
		version = "dev"
	}
	buildInfo.WithLabelValues(version).Set(1)
}
