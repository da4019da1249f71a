package observerloop

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "observerloop"

// Metrics counts pipeline activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	Produced      prometheus.Counter
	Consumed      prometheus.Counter
	DrainCycles   prometheus.Counter
	Notifications *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Produced: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "produced_total",
			Help:      "Values appended to the queue by the producer.",
		}),
		Consumed: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "consumed_total",
			Help:      "Values drained from the queue by the consumer.",
		}),
		DrainCycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "drain_cycles_total",
			Help:      "Consumer wake-ups that drained a non-empty batch.",
		}),
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notifications_total",
			Help:      "Subscriber notifications delivered, by event kind.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) produced() {
	if m != nil {
		m.Produced.Inc()
	}
}

func (m *Metrics) drained(n int) {
	if m != nil {
		m.DrainCycles.Inc()
		m.Consumed.Add(float64(n))
	}
}

func (m *Metrics) notified(kind EventKind, n int) {
	if m != nil {
		m.Notifications.WithLabelValues(kind.String()).Add(float64(n))
	}
}
