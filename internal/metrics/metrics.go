package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the loyalty engine: signup and action
// counts, reward issuance/redemption counts, and apply-path durations.
type Metrics struct {
	CustomersCreated prometheus.Counter
	ActionsApplied   *prometheus.CounterVec
	RewardsIssued    prometheus.Counter
	RewardsRedeemed  prometheus.Counter
	ApplyDuration    prometheus.Histogram
}

// New creates a Metrics instance with all loyalty metrics registered on the
// default registry.
func New() *Metrics {
	return &Metrics{
		CustomersCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchcard_customers_created_total",
			Help: "Total number of customers created at signup",
		}),
		ActionsApplied: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "punchcard_actions_applied_total",
			Help: "Total number of staff/customer actions applied, by action kind",
		}, []string{"action"}),
		RewardsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchcard_rewards_issued_total",
			Help: "Total number of rewards issued (threshold and instant)",
		}),
		RewardsRedeemed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "punchcard_rewards_redeemed_total",
			Help: "Total number of rewards redeemed",
		}),
		ApplyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "punchcard_action_apply_duration_seconds",
			Help:    "Duration of the transactional action apply path",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// ObserveApply records the duration of one apply. Call with time.Now() taken
// at the start of the operation.
func (m *Metrics) ObserveApply(start time.Time) {
	m.ApplyDuration.Observe(time.Since(start).Seconds())
}
