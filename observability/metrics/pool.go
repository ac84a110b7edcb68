package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type PoolMetrics struct {
	deposits    prometheus.Counter
	withdrawals prometheus.Counter
	claims      prometheus.Counter
	rejected    *prometheus.CounterVec
	totalStaked prometheus.Gauge
	rewardRate  prometheus.Gauge
}

var (
	poolOnce     sync.Once
	poolRegistry *PoolMetrics
)

func Pool() *PoolMetrics {
	poolOnce.Do(func() {
		poolRegistry = &PoolMetrics{
			deposits: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewardpool_deposits_total",
				Help: "Count of successful stake deposits.",
			}),
			withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewardpool_withdrawals_total",
				Help: "Count of successful stake withdrawals.",
			}),
			claims: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "rewardpool_claims_total",
				Help: "Count of nonzero reward claims paid out.",
			}),
			rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "rewardpool_rejected_operations_total",
				Help: "Count of mutating operations rejected by reason.",
			}, []string{"reason"}),
			totalStaked: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "rewardpool_total_staked",
				Help: "Current sum of all staked balances.",
			}),
			rewardRate: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "rewardpool_reward_rate",
				Help: "Configured reward emission per second.",
			}),
		}
		prometheus.MustRegister(
			poolRegistry.deposits,
			poolRegistry.withdrawals,
			poolRegistry.claims,
			poolRegistry.rejected,
			poolRegistry.totalStaked,
			poolRegistry.rewardRate,
		)
	})
	return poolRegistry
}

func (m *PoolMetrics) ObserveDeposit() {
	if m == nil {
		return
	}
	m.deposits.Inc()
}

func (m *PoolMetrics) ObserveWithdraw() {
	if m == nil {
		return
	}
	m.withdrawals.Inc()
}

func (m *PoolMetrics) ObserveClaim() {
	if m == nil {
		return
	}
	m.claims.Inc()
}

func (m *PoolMetrics) ObserveRejected(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *PoolMetrics) SetTotalStaked(amount float64) {
	if m == nil {
		return
	}
	m.totalStaked.Set(amount)
}

func (m *PoolMetrics) SetRewardRate(rate float64) {
	if m == nil {
		return
	}
	m.rewardRate.Set(rate)
}
