package polling

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSuccess = "success"
	resultFailure = "failure"
	resultAborted = "aborted"
)

// Metrics records poll cycles per store. A nil *Metrics discards everything.
type Metrics struct {
	cycles   *prometheus.CounterVec
	duration *prometheus.HistogramVec
	delay    *prometheus.GaugeVec
}

var (
	sharedMetrics     *Metrics
	sharedMetricsLock sync.Mutex
)

// NewMetrics registers the poller collectors with reg, reusing collectors
// that are already registered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	sharedMetricsLock.Lock()
	defer sharedMetricsLock.Unlock()
	if sharedMetrics != nil && reg == prometheus.DefaultRegisterer {
		return sharedMetrics, nil
	}

	cycles, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "mlconsole_poll_cycles_total",
		Help: "Poll cycles per store by result.",
	}, []string{"store", "result"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mlconsole_poll_duration_seconds",
		Help:    "Duration of a single poll call.",
		Buckets: prometheus.DefBuckets,
	}, []string{"store"}))
	if err != nil {
		return nil, err
	}
	delay, err := register(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mlconsole_poll_delay_seconds",
		Help: "Delay before the next poll of a store.",
	}, []string{"store"}))
	if err != nil {
		return nil, err
	}

	m := &Metrics{cycles: cycles, duration: duration, delay: delay}
	if reg == prometheus.DefaultRegisterer {
		sharedMetrics = m
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		var zero C
		return zero, err
	}
	return c, nil
}

func (m *Metrics) observe(store, result string, took time.Duration) {
	if m == nil {
		return
	}
	m.cycles.WithLabelValues(store, result).Inc()
	if result != resultAborted {
		m.duration.WithLabelValues(store).Observe(took.Seconds())
	}
}

func (m *Metrics) setDelay(store string, d time.Duration) {
	if m == nil {
		return
	}
	m.delay.WithLabelValues(store).Set(d.Seconds())
}
