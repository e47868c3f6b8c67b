package metrics

import "github.com/prometheus/client_golang/prometheus"

// IntakeMetrics exposes counters/histograms for the conversational intake
// pipeline.
type IntakeMetrics struct {
	inboundTotal   *prometheus.CounterVec
	outboundTotal  *prometheus.CounterVec
	dedupeDegraded prometheus.Counter
	casesCreated   *prometheus.CounterVec
	dispatchSecs   *prometheus.HistogramVec
	activeLanes    prometheus.Gauge
}

func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	m := &IntakeMetrics{
		inboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicportal",
			Subsystem: "intake",
			Name:      "inbound_total",
			Help:      "Total inbound citizen messages",
		}, []string{"kind", "status"}),
		outboundTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicportal",
			Subsystem: "intake",
			Name:      "outbound_total",
			Help:      "Total outbound channel sends",
		}, []string{"kind", "status"}),
		dedupeDegraded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "civicportal",
			Subsystem: "intake",
			Name:      "dedupe_degraded_total",
			Help:      "Messages processed while the idempotency store was unreachable",
		}),
		casesCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicportal",
			Subsystem: "intake",
			Name:      "cases_created_total",
			Help:      "Cases registered through the chat flows",
		}, []string{"kind"}),
		dispatchSecs: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "civicportal",
			Subsystem: "intake",
			Name:      "dispatch_seconds",
			Help:      "Latency of processing one inbound message end to end",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
		activeLanes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "civicportal",
			Subsystem: "intake",
			Name:      "active_lanes",
			Help:      "Session lanes currently holding a worker goroutine",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.inboundTotal, m.outboundTotal, m.dedupeDegraded, m.casesCreated, m.dispatchSecs, m.activeLanes)
	return m
}

func (m *IntakeMetrics) ObserveInbound(kind, status string) {
	if m == nil {
		return
	}
	m.inboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *IntakeMetrics) ObserveOutbound(kind, status string) {
	if m == nil {
		return
	}
	m.outboundTotal.WithLabelValues(kind, status).Inc()
}

func (m *IntakeMetrics) ObserveDedupeDegraded() {
	if m == nil {
		return
	}
	m.dedupeDegraded.Inc()
}

func (m *IntakeMetrics) ObserveCaseCreated(kind string) {
	if m == nil {
		return
	}
	m.casesCreated.WithLabelValues(kind).Inc()
}

func (m *IntakeMetrics) ObserveDispatch(flow string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchSecs.WithLabelValues(flow).Observe(seconds)
}

func (m *IntakeMetrics) LaneOpened() {
	if m == nil {
		return
	}
	m.activeLanes.Inc()
}

func (m *IntakeMetrics) LaneClosed() {
	if m == nil {
		return
	}
	m.activeLanes.Dec()
}
