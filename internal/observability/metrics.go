package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting application
// metrics for the bridge.
//
// The metrics system is built on Prometheus and tracks:
//   - Tool-call execution counts and latencies
//   - Broker failure outcomes (disconnect, timeout, transport, protocol)
//   - Resolver cache efficiency and resolve latency
//   - Executor per-stage duration and item-level failures
//   - WebSocket transport connection state and dropped frames
//
// Usage:
//
//	metrics := observability.NewMetrics()
//	defer metrics.RecordToolCall("document.collect", "success", time.Since(start).Seconds())
type Metrics struct {
	// ToolCallCounter counts tool invocations.
	// Labels: tool_name, status (success|error)
	ToolCallCounter *prometheus.CounterVec

	// ToolCallDuration measures tool execution time in seconds.
	// Labels: tool_name
	// Buckets: 0.01s, 0.05s, 0.1s, 0.5s, 1s, 5s, 10s, 30s, 60s
	ToolCallDuration *prometheus.HistogramVec

	// BrokerPending is a gauge tracking in-flight correlation ids.
	BrokerPending prometheus.Gauge

	// BrokerFailures counts broker-side failures by taxonomy.
	// Labels: reason (disconnected|timeout|transport_error|protocol_error)
	BrokerFailures *prometheus.CounterVec

	// ResolverCacheResult counts resolver cache hits and misses.
	// Labels: result (hit|miss)
	ResolverCacheResult *prometheus.CounterVec

	// ResolverDuration measures script-assembly latency in seconds.
	// Buckets: 0.0001s, 0.0005s, 0.001s, 0.005s, 0.01s, 0.05s, 0.1s
	ResolverDuration prometheus.Histogram

	// ExecutorStageDuration measures per-stage pipeline latency in seconds.
	// Labels: stage (validate|collect|compute|apply)
	// Buckets: 0.001s, 0.01s, 0.1s, 0.5s, 1s, 5s, 10s
	ExecutorStageDuration *prometheus.HistogramVec

	// ExecutorItemFailures counts per-item failures by pipeline stage.
	// Labels: stage
	ExecutorItemFailures *prometheus.CounterVec

	// TransportConnected is 1 when a panel peer is attached, 0 otherwise.
	TransportConnected prometheus.Gauge

	// TransportFramesDropped counts inbound frames dropped by the
	// WebSocket listener before they reach the broker.
	// Labels: reason (oversize|unparseable|invalid_shape)
	TransportFramesDropped *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics.
// This should be called once at application startup.
//
// All metrics are automatically registered with Prometheus's default
// registry and will be available at the /metrics endpoint.
func NewMetrics() *Metrics {
	return &Metrics{
		ToolCallCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_tool_calls_total",
				Help: "Total number of tool calls by tool name and status",
			},
			[]string{"tool_name", "status"},
		),

		ToolCallDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_tool_call_duration_seconds",
				Help:    "Duration of tool calls in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"tool_name"},
		),

		BrokerPending: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_broker_pending_requests",
				Help: "Current number of correlation ids awaiting a response",
			},
		),

		BrokerFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_broker_failures_total",
				Help: "Total number of broker failures by reason",
			},
			[]string{"reason"},
		),

		ResolverCacheResult: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_resolver_cache_total",
				Help: "Total number of resolver cache lookups by result",
			},
			[]string{"result"},
		),

		ResolverDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bridge_resolver_duration_seconds",
				Help:    "Duration of script assembly in seconds",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
			},
		),

		ExecutorStageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bridge_executor_stage_duration_seconds",
				Help:    "Duration of each executor pipeline stage in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10},
			},
			[]string{"stage"},
		),

		ExecutorItemFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_executor_item_failures_total",
				Help: "Total number of per-item failures by pipeline stage",
			},
			[]string{"stage"},
		),

		TransportConnected: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "bridge_transport_connected",
				Help: "1 if a panel peer is currently connected, 0 otherwise",
			},
		),

		TransportFramesDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bridge_transport_frames_dropped_total",
				Help: "Total number of inbound frames dropped before reaching the broker",
			},
			[]string{"reason"},
		),
	}
}

// RecordToolCall records metrics for a completed tool call.
func (m *Metrics) RecordToolCall(toolName, status string, durationSeconds float64) {
	m.ToolCallCounter.WithLabelValues(toolName, status).Inc()
	m.ToolCallDuration.WithLabelValues(toolName).Observe(durationSeconds)
}

// SetBrokerPending sets the current pending-request count.
func (m *Metrics) SetBrokerPending(n int) {
	m.BrokerPending.Set(float64(n))
}

// RecordBrokerFailure increments the failure counter for one of the
// broker's four failure reasons.
func (m *Metrics) RecordBrokerFailure(reason string) {
	m.BrokerFailures.WithLabelValues(reason).Inc()
}

// RecordResolverCache records a resolver cache hit or miss.
func (m *Metrics) RecordResolverCache(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.ResolverCacheResult.WithLabelValues(result).Inc()
}

// RecordResolverResolve records how long script assembly took.
func (m *Metrics) RecordResolverResolve(durationSeconds float64) {
	m.ResolverDuration.Observe(durationSeconds)
}

// RecordExecutorStage records how long a pipeline stage took.
func (m *Metrics) RecordExecutorStage(stage string, durationSeconds float64) {
	m.ExecutorStageDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordExecutorItemFailure increments the per-item failure counter for a
// pipeline stage.
func (m *Metrics) RecordExecutorItemFailure(stage string) {
	m.ExecutorItemFailures.WithLabelValues(stage).Inc()
}

// SetTransportConnected records whether a panel peer is attached.
func (m *Metrics) SetTransportConnected(connected bool) {
	if connected {
		m.TransportConnected.Set(1)
		return
	}
	m.TransportConnected.Set(0)
}

// RecordFrameDropped increments the dropped-frame counter for a reason.
func (m *Metrics) RecordFrameDropped(reason string) {
	m.TransportFramesDropped.WithLabelValues(reason).Inc()
}
