package ping

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "p2pping"

// Metrics Ping 引擎的 Prometheus 指标
type Metrics struct {
	rtt          prometheus.Histogram
	probes       *prometheus.CounterVec
	failures     *prometheus.CounterVec
	sessions     prometheus.Gauge
	terminations *prometheus.CounterVec
	responses    *prometheus.CounterVec
}

// NewMetrics 创建指标并注册到 reg，reg 为 nil 时不注册
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		rtt: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "probe_rtt_seconds",
			Help:      "Round-trip time of successful probes.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 16),
		}),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probes_total",
			Help:      "Probe attempts by result.",
		}, []string{"result"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "probe_failures_total",
			Help:      "Failed probes by reason.",
		}, []string{"reason"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_active",
			Help:      "Number of live ping sessions.",
		}),
		terminations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "session_terminations_total",
			Help:      "Sessions terminated by the scheduler, by cause.",
		}, []string{"cause"}),
		responses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "responses_total",
			Help:      "Inbound ping streams handled by the responder, by result.",
		}, []string{"result"}),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				continue
			}
			return nil, err
		}
	}
	return m, nil
}

// Collectors 返回全部采集器
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rtt,
		m.probes,
		m.failures,
		m.sessions,
		m.terminations,
		m.responses,
	}
}

func (m *Metrics) observeProbe(out Outcome) {
	if out.OK() {
		m.probes.WithLabelValues("success").Inc()
		m.rtt.Observe(out.RTT.Seconds())
		return
	}
	m.probes.WithLabelValues("failure").Inc()
	m.failures.WithLabelValues(out.Reason.String()).Inc()
}

func (m *Metrics) sessionStarted() {
	m.sessions.Inc()
}

func (m *Metrics) sessionEnded() {
	m.sessions.Dec()
}

func (m *Metrics) sessionTerminated(cause FailureReason) {
	m.terminations.WithLabelValues(cause.String()).Inc()
}

func (m *Metrics) observeResponse(err error) {
	if err != nil {
		m.responses.WithLabelValues("error").Inc()
		return
	}
	m.responses.WithLabelValues("echoed").Inc()
}
