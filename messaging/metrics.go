package messaging

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Call outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeDomainError = "domain_error"
	OutcomeTimeout     = "timeout"
	OutcomeTransport   = "transport_error"
)

// Metrics instruments the RPC exchange. A nil *Metrics is valid and
// records nothing, so every component takes it optionally.
type Metrics struct {
	callsTotal      *prometheus.CounterVec
	callDuration    *prometheus.HistogramVec
	repliesMatched  prometheus.Counter
	repliesOrphaned prometheus.Counter
	requestsHandled *prometheus.CounterVec
}

// NewMetrics creates and registers the messaging collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		callsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "itemvault",
			Subsystem: "rpc",
			Name:      "calls_total",
			Help:      "RPC calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		callDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "itemvault",
			Subsystem: "rpc",
			Name:      "call_duration_seconds",
			Help:      "End-to-end RPC call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		repliesMatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "itemvault",
			Subsystem: "rpc",
			Name:      "replies_matched_total",
			Help:      "Replies that resolved a pending waiter.",
		}),
		repliesOrphaned: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "itemvault",
			Subsystem: "rpc",
			Name:      "replies_orphaned_total",
			Help:      "Replies with no pending waiter, dropped silently.",
		}),
		requestsHandled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "itemvault",
			Subsystem: "worker",
			Name:      "requests_handled_total",
			Help:      "Worker requests by operation and result success.",
		}, []string{"operation", "outcome"}),
	}
}

func (m *Metrics) observeCall(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.callsTotal.WithLabelValues(operation, outcome).Inc()
	m.callDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func (m *Metrics) replyMatched() {
	if m == nil {
		return
	}
	m.repliesMatched.Inc()
}

func (m *Metrics) replyOrphaned() {
	if m == nil {
		return
	}
	m.repliesOrphaned.Inc()
}

func (m *Metrics) requestHandled(operation string, success bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if success {
		outcome = OutcomeOK
	}
	m.requestsHandled.WithLabelValues(operation, outcome).Inc()
}
