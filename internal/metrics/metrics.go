// Package metrics defines Prometheus metrics for sessions, the notification
// hub, and TTS generation. All metrics are registered via promauto at init.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Session metrics
var (
	// SessionsRunning tracks the number of live feed sessions.
	SessionsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kickcast_sessions_running",
			Help: "Number of running feed sessions",
		},
	)

	// SessionReconnectsTotal tracks session restarts after transport loss.
	SessionReconnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickcast_session_reconnects_total",
			Help: "Session reconnect attempts after transport loss",
		},
		[]string{"stream_id"},
	)

	// FeedEventsTotal tracks inbound feed events by event type and outcome.
	FeedEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickcast_feed_events_total",
			Help: "Inbound feed events by type and outcome (handled/dropped/error)",
		},
		[]string{"event", "outcome"},
	)

	// FeedDecodeErrorsTotal tracks malformed frames dropped by sessions.
	FeedDecodeErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickcast_feed_decode_errors_total",
			Help: "Malformed feed frames dropped",
		},
	)

	// FeedRateLimitedTotal tracks events dropped by the per-session flood limiter.
	FeedRateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickcast_feed_rate_limited_total",
			Help: "Feed events dropped by the per-session rate limiter",
		},
	)
)

// Hub metrics
var (
	// HubConnectedClients tracks WebSocket subscribers across all streams.
	HubConnectedClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kickcast_hub_connected_clients",
			Help: "Connected widget WebSocket clients across all streams",
		},
	)

	// HubActiveStreams tracks streams with at least one subscriber.
	HubActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kickcast_hub_active_streams",
			Help: "Streams with at least one connected subscriber",
		},
	)

	// HubNotificationsTotal tracks published notifications by type.
	HubNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickcast_hub_notifications_total",
			Help: "Notifications published to subscribers by type",
		},
		[]string{"type"},
	)

	// HubSlowClientsEvicted tracks clients dropped due to full send buffers.
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickcast_hub_slow_clients_evicted_total",
			Help: "Subscribers evicted because their send buffer was full",
		},
	)
)

// Redis metrics
var (
	// RedisOpsTotal tracks Redis commands by operation and status.
	RedisOpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickcast_redis_ops_total",
			Help: "Redis operations by command and status",
		},
		[]string{"operation", "status"},
	)

	// RedisOpDuration tracks Redis command latency in seconds.
	RedisOpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kickcast_redis_op_duration_seconds",
			Help:    "Redis operation duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	// RedisConnectionErrors tracks failed Redis dials.
	RedisConnectionErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickcast_redis_connection_errors_total",
			Help: "Failed Redis connection attempts",
		},
	)
)

// TTS metrics
var (
	// TTSGenerationDuration tracks synthesis latency in seconds by backend.
	TTSGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kickcast_tts_generation_duration_seconds",
			Help:    "TTS generation duration in seconds by backend",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"backend"},
	)

	// TTSCacheHitsTotal tracks generations served from the audio cache.
	TTSCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickcast_tts_cache_hits_total",
			Help: "TTS generations served from the audio cache",
		},
	)

	// TTSFailuresTotal tracks synthesis failures by backend.
	TTSFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kickcast_tts_failures_total",
			Help: "TTS synthesis failures by backend",
		},
		[]string{"backend"},
	)

	// TTSFailoversTotal tracks primary-to-fallback delegations.
	TTSFailoversTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kickcast_tts_failovers_total",
			Help: "TTS requests delegated to the fallback backend",
		},
	)
)
