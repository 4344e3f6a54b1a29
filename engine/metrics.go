package engine

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation for a running Engine,
// namespaced "domino_". Grounded on the teacher's PrometheusMetrics in
// graph/metrics.go (gauge/histogram/counter split, promauto.With(registry)
// factory), retargeted from node-execution metrics to tick/phase metrics.
type Metrics struct {
	queueDepth     *prometheus.GaugeVec
	tickLatencyMs  prometheus.Histogram
	workItemsTotal *prometheus.CounterVec
	faultsTotal    *prometheus.CounterVec
	droppedTotal   *prometheus.CounterVec
	budgetResidual *prometheus.GaugeVec
}

// NewMetrics registers Domino's metrics against registry (prometheus.
// DefaultRegisterer if nil).
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registry)

	return &Metrics{
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "domino",
			Name:      "phase_queue_depth",
			Help:      "Number of work items queued for a phase at tick end",
		}, []string{"phase"}),

		tickLatencyMs: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "domino",
			Name:      "tick_latency_ms",
			Help:      "Wall-clock duration of Engine.Tick in milliseconds",
			Buckets:   []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		}),

		workItemsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "domino",
			Name:      "work_items_executed_total",
			Help:      "Cumulative count of work items drained and executed, by phase",
		}, []string{"phase"}),

		faultsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "domino",
			Name:      "determinism_faults_total",
			Help:      "Cumulative count of determinism faults surfaced on a tick report, by kind",
		}, []string{"kind"}),

		droppedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "domino",
			Name:      "work_items_dropped_total",
			Help:      "Cumulative count of work items deferred to a later tick by budget exhaustion, by phase",
		}, []string{"phase"}),

		budgetResidual: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "domino",
			Name:      "domain_budget_residual",
			Help:      "Remaining per-domain budget units after the most recent tick",
		}, []string{"domain"}),
	}
}

// Observe records one TickReport's outcome. Call after Engine.Tick returns.
func (m *Metrics) Observe(report *TickReport, tickLatencyMs float64) {
	if m == nil || report == nil {
		return
	}
	m.tickLatencyMs.Observe(tickLatencyMs)
	for _, f := range report.Faults {
		m.faultsTotal.WithLabelValues(f.Kind).Inc()
	}
	droppedByPhase := map[Phase]int{}
	for _, wi := range report.Dropped {
		droppedByPhase[wi.Key.Phase]++
	}
	for phase, n := range droppedByPhase {
		m.droppedTotal.WithLabelValues(phase.String()).Add(float64(n))
	}
	for domain, residual := range report.BudgetResiduals {
		m.budgetResidual.WithLabelValues(domainLabel(domain)).Set(float64(residual))
	}
}

// ObserveQueueDepth records a phase's current queue depth.
func (m *Metrics) ObserveQueueDepth(phase Phase, depth int) {
	if m == nil {
		return
	}
	m.queueDepth.WithLabelValues(phase.String()).Set(float64(depth))
}

// ObserveWorkItemExecuted increments the executed-items counter for phase.
func (m *Metrics) ObserveWorkItemExecuted(phase Phase) {
	if m == nil {
		return
	}
	m.workItemsTotal.WithLabelValues(phase.String()).Inc()
}

func domainLabel(d DomainID) string {
	return strconv.FormatUint(uint64(d), 10)
}
