// Package metrics exposes run counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all metrics of one simulator process
type Registry struct {
	PacketsSubmitted   *prometheus.CounterVec
	SubmitFailures     *prometheus.CounterVec
	PacketsConfirmed   *prometheus.CounterVec
	WireBytes          prometheus.Counter
	NodeEnergy         *prometheus.GaugeVec
	ConfirmLatency     prometheus.Histogram
	Stops              prometheus.Counter
	NetworkLifetime    prometheus.Histogram
	TransmissionsTotal prometheus.Counter

	registry *prometheus.Registry
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Registry{
		registry: reg,
		PacketsSubmitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wsn_packets_submitted_total",
			Help: "Packets handed to the medium, by node",
		}, []string{"node"}),
		SubmitFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wsn_submit_failures_total",
			Help: "Sends the medium refused, by node",
		}, []string{"node"}),
		PacketsConfirmed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "wsn_packets_confirmed_total",
			Help: "Delivery confirmations charged to a ledger, by node",
		}, []string{"node"}),
		WireBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "wsn_wire_bytes_total",
			Help: "Encoded payload bytes, after optional compression",
		}),
		NodeEnergy: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "wsn_node_energy_joules",
			Help: "Remaining energy per node",
		}, []string{"node"}),
		ConfirmLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wsn_confirm_latency_seconds",
			Help:    "Simulated time from submission to confirmation",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
		Stops: f.NewCounter(prometheus.CounterOpts{
			Name: "wsn_global_stops_total",
			Help: "Runs ended by a node running out of energy",
		}),
		NetworkLifetime: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "wsn_network_lifetime_seconds",
			Help:    "Simulated time until the first node failed",
			Buckets: prometheus.LinearBuckets(0, 10, 20),
		}),
		TransmissionsTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "wsn_medium_transmissions_total",
			Help: "Frames carried by the shared medium",
		}),
	}
}

// Handler serves this registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.registry
}

func nodeLabel(id int) string {
	return strconv.Itoa(id)
}

func (r *Registry) PacketSubmitted(nodeID, wireBytes int) {
	r.PacketsSubmitted.WithLabelValues(nodeLabel(nodeID)).Inc()
	r.WireBytes.Add(float64(wireBytes))
}

func (r *Registry) SubmitFailed(nodeID int) {
	r.SubmitFailures.WithLabelValues(nodeLabel(nodeID)).Inc()
}

func (r *Registry) PacketConfirmed(nodeID int, remaining, latency float64) {
	r.PacketsConfirmed.WithLabelValues(nodeLabel(nodeID)).Inc()
	r.NodeEnergy.WithLabelValues(nodeLabel(nodeID)).Set(remaining)
	r.ConfirmLatency.Observe(latency)
}

func (r *Registry) NodeExhausted(nodeID int, lifetime float64) {
	r.Stops.Inc()
	r.NetworkLifetime.Observe(lifetime)
}

// SetEnergy seeds the energy gauge before the first confirmation.
func (r *Registry) SetEnergy(nodeID int, joules float64) {
	r.NodeEnergy.WithLabelValues(nodeLabel(nodeID)).Set(joules)
}

func (r *Registry) MediumTransmission() {
	r.TransmissionsTotal.Inc()
}

// Serve blocks serving /metrics on addr.
func (r *Registry) Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", r.Handler())
	return http.ListenAndServe(addr, mux)
}
