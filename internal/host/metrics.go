package host

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts executed instructions and token flows.
type Metrics struct {
	instructions *prometheus.CounterVec
	staked       prometheus.Counter
	paid         prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		instructions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stakevault",
			Name:      "instructions_total",
			Help:      "Instructions executed, by op and result kind",
		}, []string{"op", "result"}),
		staked: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stakevault",
			Name:      "tokens_staked_total",
			Help:      "Principal moved into the vault by stake instructions",
		}),
		paid: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "stakevault",
			Name:      "tokens_paid_total",
			Help:      "Rewards and principal paid out of the vault",
		}),
	}
}

func (m *Metrics) observe(op Op, result string) {
	if m == nil {
		return
	}
	m.instructions.WithLabelValues(string(op), result).Inc()
}

func (m *Metrics) addStaked(amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.staked.Add(float64(amount))
}

func (m *Metrics) addPaid(amount uint64) {
	if m == nil || amount == 0 {
		return
	}
	m.paid.Add(float64(amount))
}
