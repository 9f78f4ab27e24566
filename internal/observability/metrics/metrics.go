package metrics

import "github.com/prometheus/client_golang/prometheus"

// Outbound targets timed by ObserveOutbound.
const (
	TargetRecaptcha = "recaptcha"
	TargetWebhook   = "webhook"
)

// IntakeMetrics exposes counters/histograms for the lead intake flow.
type IntakeMetrics struct {
	submissionsTotal *prometheus.CounterVec
	leadScore        prometheus.Histogram
	outboundLatency  *prometheus.HistogramVec
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "desamiantage",
			Subsystem: "intake",
			Name:      "submissions_total",
			Help:      "Lead submissions by outcome",
		}, []string{"outcome"}),
		leadScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "desamiantage",
			Subsystem: "intake",
			Name:      "lead_score",
			Help:      "Score of accepted leads",
			Buckets:   []float64{-2, -1, 0, 1, 2, 3, 4},
		}),
		outboundLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "desamiantage",
			Subsystem: "intake",
			Name:      "outbound_seconds",
			Help:      "Latency of recaptcha and webhook calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.leadScore, m.outboundLatency)
	return m
}

func (m *IntakeMetrics) ObserveOutcome(outcome string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(outcome).Inc()
}

func (m *IntakeMetrics) ObserveScore(score int) {
	if m == nil {
		return
	}
	m.leadScore.Observe(float64(score))
}

func (m *IntakeMetrics) ObserveOutbound(target string, seconds float64) {
	if m == nil {
		return
	}
	m.outboundLatency.WithLabelValues(target).Observe(seconds)
}
