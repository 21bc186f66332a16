// Package scheduler drives the periodic escalation sweep and the payment
// plan default detector.
package scheduler

import (
	"context"
	"time"

	escalationdomain "github.com/smallbiznis/collecta/internal/escalation/domain"
	"github.com/smallbiznis/collecta/internal/observability/metrics"
	plandomain "github.com/smallbiznis/collecta/internal/paymentplan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Escalations escalationdomain.Service
	Plans       plandomain.Service
	Config      Config `optional:"true"`
}

type Scheduler struct {
	log         *zap.Logger
	escalations escalationdomain.Service
	plans       plandomain.Service
	cfg         Config
}

func NewScheduler(p Params) *Scheduler {
	return &Scheduler{
		log:         p.Log.Named("scheduler"),
		escalations: p.Escalations,
		plans:       p.Plans,
		cfg:         p.Config.withDefaults(),
	}
}

func (s *Scheduler) RunForever(ctx context.Context) {
	sweep := time.NewTicker(s.cfg.SweepInterval)
	defer sweep.Stop()
	detect := time.NewTicker(s.cfg.DetectInterval)
	defer detect.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sweep.C:
			s.RunSweepOnce(ctx)
		case <-detect.C:
			s.RunDetectOnce(ctx)
		}
	}
}

// RunSweepOnce evaluates every open case against the active rules.
func (s *Scheduler) RunSweepOnce(ctx context.Context) {
	start := time.Now()
	result, err := s.escalations.RunSweep(ctx)
	metrics.Sweep().ObserveSweep(time.Since(start), err != nil)
	if err != nil {
		s.log.Warn("escalation sweep failed", zap.Error(err))
		return
	}
	metrics.Sweep().AddCasesProcessed(result.CasesProcessed)
	metrics.Sweep().AddRulesFired(result.RulesFired)
	s.log.Info("escalation sweep finished",
		zap.Int("cases_processed", result.CasesProcessed),
		zap.Int("rules_fired", result.RulesFired),
		zap.Int("actions_executed", result.ActionsExecuted),
	)
}

// RunDetectOnce flips past-due installments to overdue, then scans active
// plans for consecutive misses. Overdue marking runs first so the detector
// sees the current picture.
func (s *Scheduler) RunDetectOnce(ctx context.Context) {
	marked, err := s.plans.MarkOverdue(ctx)
	if err != nil {
		s.log.Warn("overdue installment marking failed", zap.Error(err))
		return
	}

	result, err := s.plans.DetectDefaults(ctx)
	if err != nil {
		s.log.Warn("default detection failed", zap.Error(err))
		return
	}
	metrics.Sweep().AddInstallmentsOverdue(marked)
	if result.PlansDefaulted > 0 {
		for i := 0; i < result.PlansDefaulted; i++ {
			metrics.Sweep().IncPlanDefaulted()
		}
	}
	s.log.Info("default detection finished",
		zap.Int64("installments_marked_overdue", marked),
		zap.Int("plans_evaluated", result.PlansEvaluated),
		zap.Int("plans_defaulted", result.PlansDefaulted),
	)
}
