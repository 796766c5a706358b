package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// UsageMetrics records chat dispatch and usage-tracking outcomes. Tracking
// failures are deliberately surfaced here: a failed post-stream increment
// never breaks the response, so the counter is the reconciliation signal.
type UsageMetrics struct {
	chatRequests     *prometheus.CounterVec
	modelDowngrades  *prometheus.CounterVec
	trackingFailures *prometheus.CounterVec
	trackingDropped  prometheus.Counter
	queueDepth       prometheus.Gauge
}

// NewUsageMetrics registers the usage metrics on the provided registerer.
func NewUsageMetrics(reg prometheus.Registerer) *UsageMetrics {
	if reg == nil {
		return &UsageMetrics{}
	}
	chatRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_requests_total",
		Help: "Chat completions dispatched, by provider and model class.",
	}, []string{"provider", "model_class"})
	modelDowngrades := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_model_downgrades_total",
		Help: "Paid-tier requests served by the free model after quota exhaustion.",
	}, []string{"tier"})
	trackingFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "usage_tracking_failures_total",
		Help: "Usage increments that failed after the response was served.",
	}, []string{"kind"})
	trackingDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "usage_tracking_dropped_total",
		Help: "Usage increments dropped because the tracker queue was full.",
	})
	queueDepth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "usage_tracker_queue_depth",
		Help: "Pending entries in the usage tracker queue.",
	})
	reg.MustRegister(chatRequests, modelDowngrades, trackingFailures, trackingDropped, queueDepth)
	return &UsageMetrics{
		chatRequests:     chatRequests,
		modelDowngrades:  modelDowngrades,
		trackingFailures: trackingFailures,
		trackingDropped:  trackingDropped,
		queueDepth:       queueDepth,
	}
}

// IncChatRequest counts a dispatched chat completion.
func (m *UsageMetrics) IncChatRequest(provider, modelClass string) {
	if m == nil || m.chatRequests == nil {
		return
	}
	m.chatRequests.WithLabelValues(normalizeLabel(provider), normalizeLabel(modelClass)).Inc()
}

// IncModelDowngrade counts a paid-tier request degraded to the free model.
func (m *UsageMetrics) IncModelDowngrade(tier string) {
	if m == nil || m.modelDowngrades == nil {
		return
	}
	m.modelDowngrades.WithLabelValues(normalizeLabel(tier)).Inc()
}

// IncTrackingFailure counts a failed post-stream usage increment.
func (m *UsageMetrics) IncTrackingFailure(kind string) {
	if m == nil || m.trackingFailures == nil {
		return
	}
	m.trackingFailures.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncTrackingDropped counts a usage increment rejected by a full queue.
func (m *UsageMetrics) IncTrackingDropped() {
	if m == nil || m.trackingDropped == nil {
		return
	}
	m.trackingDropped.Inc()
}

// SetQueueDepth records the current tracker backlog.
func (m *UsageMetrics) SetQueueDepth(depth int) {
	if m == nil || m.queueDepth == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
