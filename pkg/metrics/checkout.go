package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics tracks checkout commits and payment verification outcomes.
type CheckoutMetrics struct {
	commits        *prometheus.CounterVec
	commitDuration prometheus.Histogram
	verifications  *prometheus.CounterVec
	gatewayCalls   *prometheus.HistogramVec
}

// NewCheckoutMetrics registers the checkout metrics on the provided registerer.
func NewCheckoutMetrics(reg prometheus.Registerer) *CheckoutMetrics {
	if reg == nil {
		return &CheckoutMetrics{}
	}
	commits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_commits_total",
		Help: "Checkout commit attempts by outcome.",
	}, []string{"outcome"})
	commitDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_commit_duration_seconds",
		Help:    "Duration of the checkout commit transaction.",
		Buckets: prometheus.DefBuckets,
	})
	verifications := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payment_verifications_total",
		Help: "Payment verification attempts by outcome.",
	}, []string{"outcome"})
	gatewayCalls := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "payment_gateway_request_duration_seconds",
		Help:    "Latency of outbound payment gateway calls.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	reg.MustRegister(commits, commitDuration, verifications, gatewayCalls)
	return &CheckoutMetrics{
		commits:        commits,
		commitDuration: commitDuration,
		verifications:  verifications,
		gatewayCalls:   gatewayCalls,
	}
}

// IncCommit counts one checkout commit with the given outcome label.
func (c *CheckoutMetrics) IncCommit(outcome string) {
	if c == nil || c.commits == nil {
		return
	}
	c.commits.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveCommitDuration records how long a commit transaction took.
func (c *CheckoutMetrics) ObserveCommitDuration(duration time.Duration) {
	if c == nil || c.commitDuration == nil {
		return
	}
	c.commitDuration.Observe(duration.Seconds())
}

// IncVerification counts one verification attempt with the given outcome label.
func (c *CheckoutMetrics) IncVerification(outcome string) {
	if c == nil || c.verifications == nil {
		return
	}
	c.verifications.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGatewayCall records the latency of one gateway request.
func (c *CheckoutMetrics) ObserveGatewayCall(operation string, duration time.Duration) {
	if c == nil || c.gatewayCalls == nil {
		return
	}
	c.gatewayCalls.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}
