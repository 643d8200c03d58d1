// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Live polling
	PollAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpulse_live_poll_total",
			Help: "Live feed polls by outcome",
		},
		[]string{"outcome"}, // success, failure
	)

	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrpulse_live_poll_duration_seconds",
			Help:    "Duration of live feed fetches",
			Buckets: []float64{.025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	ActivePollers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qrpulse_live_active_pollers",
			Help: "Number of per-user pollers currently running",
		},
	)

	DisconnectedPollers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qrpulse_live_disconnected_pollers",
			Help: "Number of pollers past their consecutive failure threshold",
		},
	)

	BufferedScans = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrpulse_live_buffer_scans",
			Help:    "Scan events held in a live buffer after each merge",
			Buckets: []float64{0, 10, 50, 100, 250, 500},
		},
	)

	DuplicateScans = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qrpulse_live_duplicate_scans_total",
			Help: "Scan events dropped because their id was already seen",
		},
	)

	// Backend client
	MalformedFeedRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpulse_backend_malformed_records_total",
			Help: "Feed records skipped because they were not JSON objects",
		},
		[]string{"kind"}, // scan, notification
	)

	BackendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpulse_backend_requests_total",
			Help: "Requests to the platform API by endpoint and status",
		},
		[]string{"endpoint", "status"},
	)

	BackendRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qrpulse_backend_rate_limit_retries_total",
			Help: "Requests retried after an HTTP 429",
		},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "qrpulse_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpulse_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// QR rendering
	QRRenders = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpulse_qr_renders_total",
			Help: "QR render requests by payload type and outcome",
		},
		[]string{"type", "outcome"}, // outcome: rendered, cached, error
	)

	QRRenderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "qrpulse_qr_render_duration_seconds",
			Help:    "Time spent rasterising a QR image (cache misses only)",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
	)

	// WebSocket
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qrpulse_websocket_connections",
			Help: "Open WebSocket connections",
		},
	)

	WSMessagesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "qrpulse_websocket_messages_dropped_total",
			Help: "Messages dropped because a client send buffer was full",
		},
	)

	// Local state store
	StoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpulse_store_operations_total",
			Help: "Notification state store operations by kind and outcome",
		},
		[]string{"op", "outcome"}, // op: load, read, clear, gc
	)

	// Plan gating
	GateDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpulse_gate_decisions_total",
			Help: "Plan feature checks by feature and decision",
		},
		[]string{"feature", "decision"},
	)

	// HTTP
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpulse_http_requests_total",
			Help: "HTTP requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "qrpulse_http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "qrpulse_http_active_requests",
			Help: "In-flight HTTP requests",
		},
	)
)

// RecordPoll records one live feed poll.
func RecordPoll(duration time.Duration, err error) {
	PollDuration.Observe(duration.Seconds())
	if err != nil {
		PollAttempts.WithLabelValues("failure").Inc()
		return
	}
	PollAttempts.WithLabelValues("success").Inc()
}

// RecordBackendRequest records a platform API response. status 0 means the
// request never produced a response.
func RecordBackendRequest(endpoint string, status int) {
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	BackendRequests.WithLabelValues(endpoint, label).Inc()
}

// RecordQRRender records a render outcome. duration is ignored for cache hits
// and errors.
func RecordQRRender(payloadType, outcome string, duration time.Duration) {
	QRRenders.WithLabelValues(payloadType, outcome).Inc()
	if outcome == "rendered" {
		QRRenderDuration.Observe(duration.Seconds())
	}
}

// RecordAPIRequest records a completed HTTP request.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordStoreOp records one state store operation.
func RecordStoreOp(op string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	StoreOperations.WithLabelValues(op, outcome).Inc()
}

// RecordGateDecision records a plan feature check.
func RecordGateDecision(feature string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	GateDecisions.WithLabelValues(feature, decision).Inc()
}
