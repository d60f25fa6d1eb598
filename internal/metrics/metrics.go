// Package metrics collects Prometheus metrics for match decisions,
// notifications and live event delivery.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the services report to.
type Recorder interface {
	RecordMatchDecision(decision string)
	RecordNotification()
	RecordMessage()
	RecordPush(event string, delivered bool)
	ConnectionOpened()
	ConnectionClosed()
}

// Match decisions.
const (
	DecisionApproveItem  = "approve_item"
	DecisionApproveMatch = "approve_match"
	DecisionRejectMatch  = "reject_match"
	DecisionRevertMatch  = "revert_match"
)

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	matchDecisions *prometheus.CounterVec
	notifications  prometheus.Counter
	messages       prometheus.Counter
	pushes         *prometheus.CounterVec
	connections    prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		matchDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "najdeno_match_decisions_total",
			Help: "Administrator match decisions by kind.",
		}, []string{"decision"}),
		notifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "najdeno_notifications_created_total",
			Help: "Notifications stored.",
		}),
		messages: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "najdeno_chat_messages_total",
			Help: "Chat messages sent.",
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "najdeno_live_pushes_total",
			Help: "Live events by type and outcome.",
		}, []string{"event", "outcome"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "najdeno_live_connections",
			Help: "Open live connections.",
		}),
	}

	reg.MustRegister(
		c.matchDecisions,
		c.notifications,
		c.messages,
		c.pushes,
		c.connections,
	)

	return c
}

// RecordMatchDecision counts an administrator decision.
func (c *Collector) RecordMatchDecision(decision string) {
	c.matchDecisions.WithLabelValues(decision).Inc()
}

// RecordNotification counts a stored notification.
func (c *Collector) RecordNotification() {
	c.notifications.Inc()
}

// RecordMessage counts a sent chat message.
func (c *Collector) RecordMessage() {
	c.messages.Inc()
}

// RecordPush counts a live event as delivered or dropped.
func (c *Collector) RecordPush(event string, delivered bool) {
	outcome := "dropped"
	if delivered {
		outcome = "delivered"
	}
	c.pushes.WithLabelValues(event, outcome).Inc()
}

// ConnectionOpened increments the live connection gauge.
func (c *Collector) ConnectionOpened() {
	c.connections.Inc()
}

// ConnectionClosed decrements the live connection gauge.
func (c *Collector) ConnectionClosed() {
	c.connections.Dec()
}

// Handler returns the HTTP handler exposing metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordMatchDecision(string) {}
func (Nop) RecordNotification()        {}
func (Nop) RecordMessage()             {}
func (Nop) RecordPush(string, bool)    {}
func (Nop) ConnectionOpened()          {}
func (Nop) ConnectionClosed()          {}
