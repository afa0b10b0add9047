// Package metrics defines all Prometheus metrics for dhcpradiusd.
// All metrics use the "dhcpradiusd_" prefix.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "dhcpradiusd"

// --- DHCP Packet Metrics ---

var (
	// PacketsReceived counts DHCP packets received by message type.
	PacketsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_received_total",
		Help:      "Total DHCP packets received, by message type.",
	}, []string{"msg_type"})

	// PacketsSent counts DHCP packets sent by message type.
	PacketsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_sent_total",
		Help:      "Total DHCP packets sent, by message type.",
	}, []string{"msg_type"})

	// PacketErrors counts packet processing errors, by CodecError Kind
	// (or "rate_limited"/"send" for the two non-codec drop paths).
	PacketErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packet_errors_total",
		Help:      "Total packet processing errors, by type.",
	}, []string{"type"})

	// PacketProcessingDuration tracks DHCP packet handling latency from
	// Policy Host dispatch to reply encode.
	PacketProcessingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "packet_processing_duration_seconds",
		Help:      "DHCP packet processing duration in seconds.",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	}, []string{"msg_type"})
)

// --- RADIUS Bridge Metrics ---

var (
	// RadiusRequests counts RADIUS exchanges by request kind (auth,
	// accounting) and outcome (accept, reject, error).
	RadiusRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "radius_requests_total",
		Help:      "Total RADIUS requests sent, by kind and outcome.",
	}, []string{"kind", "outcome"})

	// RadiusLatency tracks RADIUS round-trip latency by request kind.
	RadiusLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "radius_request_duration_seconds",
		Help:      "RADIUS request round-trip duration in seconds.",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 2.0, 5.0},
	}, []string{"kind"})
)

// --- Dictionary Metrics ---

var (
	// UnknownOptions counts option codes the Option Codec's dictionary
	// could not resolve, by code, so an operator can see which vendor
	// option to seed into the override store next.
	UnknownOptions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "unknown_options_total",
		Help:      "Total decoded option codes absent from the dictionary.",
	}, []string{"code"})
)

// --- Server Info ---

var (
	// ServerInfo is a constant gauge with server build/version metadata.
	ServerInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_info",
		Help:      "Server build and version info.",
	}, []string{"version"})

	// ServerStartTime tracks server start time as a unix timestamp.
	ServerStartTime = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_start_time_seconds",
		Help:      "Server start time as Unix timestamp.",
	})
)
