package engine

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/smallbiznis/collecta/internal/campaign/domain"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/config"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/escalation/domain"
	"github.com/smallbiznis/collecta/internal/events"
	notificationdomain "github.com/smallbiznis/collecta/internal/notification/domain"
	voicedomain "github.com/smallbiznis/collecta/internal/voice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	Repo     domain.Repository
	CaseRepo casedomain.Repository
	CaseSvc  casedomain.Service
	Resolver casedomain.ContactResolver
	Campaign campaigndomain.Store
	VoiceSvc voicedomain.Service
	Notifier notificationdomain.Notifier
	Outbox   *events.Outbox
}

// Orchestrator drives rule evaluation: per case on demand, or a full sweep
// over every open case.
type Orchestrator struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	batchSize int
	repo      domain.Repository
	caseRepo  casedomain.Repository
	resolver  casedomain.ContactResolver
	executor  *Executor
	outbox    *events.Outbox
}

func NewOrchestrator(p Params) domain.Service {
	return &Orchestrator{
		db:        p.DB,
		log:       p.Log.Named("escalation.engine"),
		genID:     p.GenID,
		clock:     p.Clock,
		batchSize: p.Cfg.Worker.BatchSize,
		repo:      p.Repo,
		caseRepo:  p.CaseRepo,
		resolver:  p.Resolver,
		executor: NewExecutor(
			p.Log,
			p.CaseSvc,
			p.Resolver,
			p.Campaign,
			p.VoiceSvc,
			p.Notifier,
			p.Cfg.Worker.ActionTimeout,
		),
		outbox: p.Outbox,
	}
}

// EvaluateCase runs every active rule of the case's org against the case, in
// ascending rule priority. Rules fire independently: one firing never excludes
// another in the same pass.
func (o *Orchestrator) EvaluateCase(ctx context.Context, debtCaseID snowflake.ID) (domain.Result, error) {
	result := domain.Result{}

	dcase, err := o.caseRepo.Find(ctx, o.db, debtCaseID)
	if err != nil {
		return result, err
	}
	if dcase == nil {
		return result, casedomain.ErrCaseNotFound
	}
	result.CasesProcessed = 1

	rules, err := o.repo.ListActiveRules(ctx, o.db, dcase.OrgID)
	if err != nil {
		return result, err
	}
	if len(rules) == 0 {
		return result, nil
	}

	features, err := o.buildFeatures(ctx, dcase)
	if err != nil {
		return result, err
	}

	for _, rule := range rules {
		fired, actions := o.evaluateRule(ctx, rule, dcase, features)
		if fired {
			result.RulesFired++
			result.ActionsExecuted += actions
		}
	}
	return result, nil
}

// RunSweep pages through all evaluable cases. Per-case failures are recorded
// and skipped; only storage unavailability aborts the sweep.
func (o *Orchestrator) RunSweep(ctx context.Context) (domain.Result, error) {
	result := domain.Result{}
	var afterID snowflake.ID

	for {
		batch, err := o.repo.FetchSweepCases(ctx, o.db, casedomain.SweepStatuses, afterID, o.batchSize)
		if err != nil {
			return result, domain.ErrStoreUnavailable
		}
		if len(batch) == 0 {
			return result, nil
		}

		for _, candidate := range batch {
			afterID = candidate.ID
			caseResult, err := o.EvaluateCase(ctx, candidate.ID)
			if err != nil {
				o.log.Warn("case evaluation failed",
					zap.String("debt_case_id", candidate.ID.String()),
					zap.Error(err),
				)
				continue
			}
			result.CasesProcessed += caseResult.CasesProcessed
			result.RulesFired += caseResult.RulesFired
			result.ActionsExecuted += caseResult.ActionsExecuted
		}
	}
}

func (o *Orchestrator) ListExecutions(ctx context.Context, debtCaseID snowflake.ID, limit int) ([]domain.RuleExecution, error) {
	return o.repo.ListExecutionsForCase(ctx, o.db, debtCaseID, limit)
}

// evaluateRule runs the evaluator, the guard and the atomic claim, then
// executes the rule's actions and persists their results. Exactly one
// execution record is appended per firing, even when every action fails, so
// cooldown anchors to attempt time.
func (o *Orchestrator) evaluateRule(ctx context.Context, rule domain.EscalationRule, dcase *casedomain.DebtCase, features domain.CaseFeatures) (bool, int) {
	conditions, err := rule.ParseConditions()
	if err != nil {
		o.log.Warn("unparseable rule conditions",
			zap.String("rule_id", rule.ID.String()),
			zap.Error(err),
		)
		return false, 0
	}
	if !Matches(conditions, features) {
		return false, 0
	}

	now := o.clock.Now()
	history, err := o.repo.ListExecutionTimes(ctx, o.db, rule.ID, dcase.ID)
	if err != nil {
		o.log.Warn("execution history load failed",
			zap.String("rule_id", rule.ID.String()),
			zap.Error(err),
		)
		return false, 0
	}
	if decision := CheckGuard(rule, history, now); !decision.Eligible {
		return false, 0
	}

	// The claim re-checks cooldown and quota atomically; losing the race to a
	// concurrent sweep is not an error.
	executionID := o.genID.Generate()
	claimed, err := o.repo.ClaimExecution(ctx, o.db, domain.ExecutionClaim{
		ExecutionID:   executionID,
		OrgID:         dcase.OrgID,
		RuleID:        rule.ID,
		DebtCaseID:    dcase.ID,
		ExecutedAt:    now,
		CooldownSince: now.Add(-time.Duration(rule.CooldownHours) * time.Hour),
		MaxExecutions: rule.MaxExecutions,
	})
	if err != nil {
		o.log.Warn("execution claim failed",
			zap.String("rule_id", rule.ID.String()),
			zap.Error(err),
		)
		return false, 0
	}
	if !claimed {
		return false, 0
	}

	specs, err := rule.ParseActions()
	if err != nil {
		o.log.Warn("unparseable rule actions",
			zap.String("rule_id", rule.ID.String()),
			zap.Error(err),
		)
		specs = nil
	}

	// Actions run outside any transaction or case lock; failures land in the
	// record for operator review, never abort siblings.
	results := o.executor.ExecuteAll(ctx, dcase, specs)
	if err := o.repo.SetActionsTaken(ctx, o.db, executionID, results); err != nil {
		o.log.Warn("persisting action results failed",
			zap.String("execution_id", executionID.String()),
			zap.Error(err),
		)
	}

	payload := events.RuleFiredPayload{
		RuleID:      rule.ID.String(),
		DebtCaseID:  dcase.ID.String(),
		ExecutionID: executionID.String(),
	}
	if err := o.outbox.Publish(ctx, events.Event{
		OrgID:     dcase.OrgID,
		Type:      events.EventRuleFired,
		Payload:   payload.ToMap(),
		DedupeKey: "rule_fired:" + executionID.String(),
	}); err != nil {
		o.log.Warn("rule fired event publish failed", zap.Error(err))
	}

	return true, len(results)
}

// buildFeatures computes the deterministic snapshot conditions evaluate over.
func (o *Orchestrator) buildFeatures(ctx context.Context, dcase *casedomain.DebtCase) (domain.CaseFeatures, error) {
	now := o.clock.Now()

	contact, err := o.resolver.ResolveContact(ctx, dcase.ID)
	if err != nil {
		return domain.CaseFeatures{}, err
	}
	daysOverdue := int64(now.Sub(contact.InvoiceDueDate).Hours() / 24)
	if daysOverdue < 0 {
		daysOverdue = 0
	}

	attempts, err := o.repo.CountExecutionsForCase(ctx, o.db, dcase.ID)
	if err != nil {
		return domain.CaseFeatures{}, err
	}

	features := domain.CaseFeatures{
		DaysOverdue:      daysOverdue,
		TotalDebtCents:   dcase.TotalDebtCents,
		Status:           dcase.Status,
		PreviousAttempts: attempts,
	}
	if dcase.LastContactAt != nil {
		lastContactDays := int64(now.Sub(*dcase.LastContactAt).Hours() / 24)
		if lastContactDays < 0 {
			lastContactDays = 0
		}
		features.LastContactDaysAgo = &lastContactDays
	}
	return features, nil
}
