package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics tracks the escalation sweep and default detection loops.
type SweepMetrics struct {
	sweepDuration      *prometheus.HistogramVec
	casesProcessed     prometheus.Counter
	rulesFired         prometheus.Counter
	actionsExecuted    *prometheus.CounterVec
	plansDefaulted     prometheus.Counter
	installmentsOverdue prometheus.Counter
}

var (
	sweepMetricsOnce sync.Once
	sweepMetrics     *SweepMetrics
)

func Sweep() *SweepMetrics {
	return SweepWithConfig(Config{})
}

func SweepWithConfig(cfg Config) *SweepMetrics {
	sweepMetricsOnce.Do(func() {
		sweepMetrics = newSweepMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return sweepMetrics
}

func ResetSweepMetricsForTest() {
	sweepMetricsOnce = sync.Once{}
	sweepMetrics = nil
}

func newSweepMetrics(registerer prometheus.Registerer, cfg Config) *SweepMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "collecta"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}

	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	sweepDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "collecta_sweep_duration_seconds",
			Help: "Wall time of one escalation sweep over all open cases.",
			Buckets: []float64{
				1,
				5,
				15,
				60,
				300,
				900,
			},
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | failed
	)

	casesProcessed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "collecta_sweep_cases_processed_total",
			Help:        "Total debt cases evaluated by sweeps.",
			ConstLabels: constLabels,
		},
	)

	rulesFired := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "collecta_sweep_rules_fired_total",
			Help:        "Total escalation rules whose conditions and guards passed.",
			ConstLabels: constLabels,
		},
	)

	actionsExecuted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:        "collecta_sweep_actions_executed_total",
			Help:        "Total rule actions attempted.",
			ConstLabels: constLabels,
		},
		[]string{"result"}, // success | failed
	)

	plansDefaulted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "collecta_plans_defaulted_total",
			Help:        "Total payment plans marked defaulted by the detector.",
			ConstLabels: constLabels,
		},
	)

	installmentsOverdue := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name:        "collecta_installments_marked_overdue_total",
			Help:        "Total installments flipped from pending to overdue.",
			ConstLabels: constLabels,
		},
	)

	registerer.MustRegister(
		sweepDuration,
		casesProcessed,
		rulesFired,
		actionsExecuted,
		plansDefaulted,
		installmentsOverdue,
	)

	return &SweepMetrics{
		sweepDuration:      sweepDuration,
		casesProcessed:     casesProcessed,
		rulesFired:         rulesFired,
		actionsExecuted:    actionsExecuted,
		plansDefaulted:     plansDefaulted,
		installmentsOverdue: installmentsOverdue,
	}
}

func (m *SweepMetrics) ObserveSweep(duration time.Duration, failed bool) {
	if m == nil {
		return
	}
	result := "success"
	if failed {
		result = "failed"
	}
	m.sweepDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func (m *SweepMetrics) AddCasesProcessed(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.casesProcessed.Add(float64(count))
}

func (m *SweepMetrics) AddRulesFired(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.rulesFired.Add(float64(count))
}

func (m *SweepMetrics) IncActionExecuted(success bool) {
	if m == nil {
		return
	}
	result := "success"
	if !success {
		result = "failed"
	}
	m.actionsExecuted.WithLabelValues(result).Inc()
}

func (m *SweepMetrics) IncPlanDefaulted() {
	if m == nil {
		return
	}
	m.plansDefaulted.Inc()
}

func (m *SweepMetrics) AddInstallmentsOverdue(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.installmentsOverdue.Add(float64(count))
}
