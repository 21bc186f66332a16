package engine

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/config"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	caserepository "github.com/smallbiznis/collecta/internal/debtcase/repository"
	"github.com/smallbiznis/collecta/internal/escalation/domain"
	"github.com/smallbiznis/collecta/internal/escalation/repository"
	"github.com/smallbiznis/collecta/internal/events"
	notificationdomain "github.com/smallbiznis/collecta/internal/notification/domain"
	voicedomain "github.com/smallbiznis/collecta/internal/voice/domain"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type stepClock struct {
	at time.Time
}

func (c *stepClock) Now() time.Time { return c.at }

type fakeCaseService struct {
	db         *gorm.DB
	priorities []casedomain.CasePriority
	agents     []snowflake.ID
}

func (f *fakeCaseService) Get(ctx context.Context, id snowflake.ID) (*casedomain.DebtCase, error) {
	return (&caserepository.Repository{}).Find(ctx, f.db, id)
}

func (f *fakeCaseService) TransitionStatus(ctx context.Context, req casedomain.TransitionRequest) (*casedomain.DebtCase, error) {
	return f.Get(ctx, req.DebtCaseID)
}

func (f *fakeCaseService) RecordActivity(ctx context.Context, req casedomain.ActivityRequest) error {
	return nil
}

func (f *fakeCaseService) EscalatePriority(ctx context.Context, id snowflake.ID, priority casedomain.CasePriority) error {
	f.priorities = append(f.priorities, priority)
	return nil
}

func (f *fakeCaseService) AssignAgent(ctx context.Context, caseID, agentID snowflake.ID) error {
	f.agents = append(f.agents, agentID)
	return nil
}

func (f *fakeCaseService) SetNextAction(ctx context.Context, id snowflake.ID, at time.Time) error {
	return nil
}

func (f *fakeCaseService) ResolveFromPlanCompletion(ctx context.Context, id snowflake.ID) error {
	return nil
}

type fakeResolver struct {
	contact casedomain.Contact
}

func (f *fakeResolver) ResolveContact(ctx context.Context, debtCaseID snowflake.ID) (*casedomain.Contact, error) {
	contact := f.contact
	return &contact, nil
}

type fakeCampaign struct {
	added int
}

func (f *fakeCampaign) AddContact(ctx context.Context, orgID snowflake.ID, campaignID string, debtCaseID, customerID snowflake.ID) error {
	f.added++
	return nil
}

type fakeVoiceService struct {
	scheduled int
}

func (f *fakeVoiceService) ScheduleCall(ctx context.Context, req voicedomain.ScheduleRequest) (*voicedomain.VoiceCall, error) {
	f.scheduled++
	return &voicedomain.VoiceCall{}, nil
}

func (f *fakeVoiceService) ApplyOutcome(ctx context.Context, req voicedomain.OutcomeRequest) (*casedomain.DebtCase, error) {
	return nil, nil
}

type fakeNotifier struct {
	sent int
}

func (f *fakeNotifier) Send(ctx context.Context, msg notificationdomain.Message) error {
	f.sent++
	return nil
}

type engineFixture struct {
	db       *gorm.DB
	node     *snowflake.Node
	clk      *stepClock
	caseSvc  *fakeCaseService
	campaign *fakeCampaign
	svc      domain.Service
}

func setupEngineTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// One named shared-cache database per test keeps sweeps from seeing
	// other tests' cases.
	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	statements := []string{
		`CREATE TABLE IF NOT EXISTS debt_cases (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			invoice_id BIGINT NOT NULL,
			customer_id BIGINT NOT NULL,
			status TEXT NOT NULL DEFAULT 'new',
			priority TEXT NOT NULL DEFAULT 'medium',
			assigned_agent_id BIGINT,
			total_debt_cents BIGINT NOT NULL,
			currency TEXT NOT NULL DEFAULT 'USD',
			last_contact_at TIMESTAMP,
			next_action_at TIMESTAMP,
			escalated_at TIMESTAMP,
			resolved_at TIMESTAMP,
			deleted_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS escalation_rules (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			priority INTEGER NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT true,
			conditions TEXT NOT NULL,
			actions TEXT NOT NULL,
			cooldown_hours INTEGER NOT NULL DEFAULT 24,
			max_executions INTEGER,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS escalation_rule_executions (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			rule_id BIGINT NOT NULL,
			debt_case_id BIGINT NOT NULL,
			actions_taken TEXT NOT NULL DEFAULT '[]',
			executed_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS collection_events (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL DEFAULT '{}',
			dedupe_key TEXT,
			published BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (org_id, dedupe_key)
		)`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create table: %v", err)
		}
	}
	return db
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	db := setupEngineTestDB(t)
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := &stepClock{at: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	caseSvc := &fakeCaseService{db: db}
	campaign := &fakeCampaign{}

	params := Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Cfg:      config.Config{Worker: config.Worker{BatchSize: 10, ActionTimeout: time.Second}},
		Repo:     repository.Provide(),
		CaseRepo: caserepository.Provide(),
		CaseSvc:  caseSvc,
		Resolver: &fakeResolver{contact: casedomain.Contact{
			CustomerID:     node.Generate(),
			Phone:          "+15551230042",
			Email:          "debtor@example.com",
			InvoiceDueDate: clk.at.AddDate(0, 0, -35),
		}},
		Campaign: campaign,
		VoiceSvc: &fakeVoiceService{},
		Notifier: &fakeNotifier{},
		Outbox:   events.NewOutbox(db, node),
	}
	return &engineFixture{
		db:       db,
		node:     node,
		clk:      clk,
		caseSvc:  caseSvc,
		campaign: campaign,
		svc:      NewOrchestrator(params),
	}
}

func (f *engineFixture) insertCase(t *testing.T, orgID snowflake.ID, status casedomain.CaseStatus, debtCents int64) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	err := f.db.Exec(
		`INSERT INTO debt_cases (id, org_id, invoice_id, customer_id, status, priority, total_debt_cents, currency)
		 VALUES (?, ?, ?, ?, ?, 'medium', ?, 'USD')`,
		id, orgID, f.node.Generate(), f.node.Generate(), status, debtCents,
	).Error
	if err != nil {
		t.Fatalf("insert case: %v", err)
	}
	return id
}

func (f *engineFixture) insertRule(t *testing.T, orgID snowflake.ID, priority int, conditions, actions string, cooldownHours int, maxExecutions *int) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	err := f.db.Exec(
		`INSERT INTO escalation_rules (id, org_id, name, priority, is_active, conditions, actions, cooldown_hours, max_executions)
		 VALUES (?, ?, 'rule', ?, true, ?, ?, ?, ?)`,
		id, orgID, priority, conditions, actions, cooldownHours, maxExecutions,
	).Error
	if err != nil {
		t.Fatalf("insert rule: %v", err)
	}
	return id
}

func TestEvaluateCaseFiresMatchingRule(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.node.Generate()
	caseID := f.insertCase(t, orgID, casedomain.StatusNew, 15000)
	f.insertRule(t, orgID, 1,
		`{"daysOverdue":{"min":30},"debtAmount":{"min":10000}}`,
		`[{"type":"escalate_priority","params":{"priority":"critical"}},{"type":"send_email","params":{"templateId":"final-notice"}}]`,
		24, nil,
	)

	result, err := f.svc.EvaluateCase(context.Background(), caseID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.CasesProcessed != 1 || result.RulesFired != 1 || result.ActionsExecuted != 2 {
		t.Fatalf("result = %+v, want 1 case, 1 rule, 2 actions", result)
	}
	if len(f.caseSvc.priorities) != 1 || f.caseSvc.priorities[0] != casedomain.PriorityCritical {
		t.Fatalf("priorities = %v, want [critical]", f.caseSvc.priorities)
	}

	executions, err := f.svc.ListExecutions(context.Background(), caseID, 10)
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	if len(executions) != 1 {
		t.Fatalf("executions = %d, want 1", len(executions))
	}
	actions, err := executions[0].ParseActionsTaken()
	if err != nil {
		t.Fatalf("parse actions taken: %v", err)
	}
	if len(actions) != 2 {
		t.Fatalf("recorded actions = %d, want 2", len(actions))
	}
	for _, action := range actions {
		if !action.Success {
			t.Fatalf("action %s failed: %s", action.Type, action.Error)
		}
	}
}

func TestEvaluateCaseCooldownBlocksRefire(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.node.Generate()
	caseID := f.insertCase(t, orgID, casedomain.StatusNew, 15000)
	f.insertRule(t, orgID, 1,
		`{"daysOverdue":{"min":30}}`,
		`[{"type":"escalate_priority","params":{"priority":"high"}}]`,
		24, nil,
	)

	first, err := f.svc.EvaluateCase(context.Background(), caseID)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if first.RulesFired != 1 {
		t.Fatalf("first pass fired %d rules, want 1", first.RulesFired)
	}

	f.clk.at = f.clk.at.Add(1 * time.Hour)
	second, err := f.svc.EvaluateCase(context.Background(), caseID)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if second.RulesFired != 0 || second.ActionsExecuted != 0 {
		t.Fatalf("second pass = %+v, want nothing fired inside cooldown", second)
	}

	executions, err := f.svc.ListExecutions(context.Background(), caseID, 10)
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	if len(executions) != 1 {
		t.Fatalf("executions = %d, want 1", len(executions))
	}
}

func TestEvaluateCaseRefiresAfterCooldown(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.node.Generate()
	caseID := f.insertCase(t, orgID, casedomain.StatusNew, 15000)
	f.insertRule(t, orgID, 1,
		`{"daysOverdue":{"min":30}}`,
		`[{"type":"escalate_priority","params":{"priority":"high"}}]`,
		24, nil,
	)

	if _, err := f.svc.EvaluateCase(context.Background(), caseID); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	f.clk.at = f.clk.at.Add(25 * time.Hour)
	result, err := f.svc.EvaluateCase(context.Background(), caseID)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if result.RulesFired != 1 {
		t.Fatalf("expired cooldown must allow a refire, got %+v", result)
	}
}

func TestEvaluateCaseQuotaExhausted(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.node.Generate()
	caseID := f.insertCase(t, orgID, casedomain.StatusNew, 15000)
	max := 1
	f.insertRule(t, orgID, 1,
		`{"daysOverdue":{"min":30}}`,
		`[{"type":"escalate_priority","params":{"priority":"high"}}]`,
		1, &max,
	)

	if _, err := f.svc.EvaluateCase(context.Background(), caseID); err != nil {
		t.Fatalf("first evaluate: %v", err)
	}

	f.clk.at = f.clk.at.Add(48 * time.Hour)
	result, err := f.svc.EvaluateCase(context.Background(), caseID)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if result.RulesFired != 0 {
		t.Fatalf("quota of 1 must block the second firing, got %+v", result)
	}
}

func TestEvaluateCaseRulesRunInPriorityOrder(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.node.Generate()
	caseID := f.insertCase(t, orgID, casedomain.StatusNew, 15000)
	f.insertRule(t, orgID, 2,
		`{"daysOverdue":{"min":30}}`,
		`[{"type":"escalate_priority","params":{"priority":"critical"}}]`,
		24, nil,
	)
	f.insertRule(t, orgID, 1,
		`{"daysOverdue":{"min":30}}`,
		`[{"type":"escalate_priority","params":{"priority":"high"}}]`,
		24, nil,
	)

	result, err := f.svc.EvaluateCase(context.Background(), caseID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.RulesFired != 2 {
		t.Fatalf("both rules must fire independently, got %+v", result)
	}
	// Ascending rule priority, so the higher-numbered rule applies last.
	want := []casedomain.CasePriority{casedomain.PriorityHigh, casedomain.PriorityCritical}
	if len(f.caseSvc.priorities) != 2 || f.caseSvc.priorities[0] != want[0] || f.caseSvc.priorities[1] != want[1] {
		t.Fatalf("priorities = %v, want %v", f.caseSvc.priorities, want)
	}
}

func TestEvaluateCaseCreateDebtCaseActionFails(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.node.Generate()
	caseID := f.insertCase(t, orgID, casedomain.StatusNew, 15000)
	f.insertRule(t, orgID, 1,
		`{}`,
		`[{"type":"create_debt_case"},{"type":"escalate_priority","params":{"priority":"high"}}]`,
		24, nil,
	)

	result, err := f.svc.EvaluateCase(context.Background(), caseID)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if result.ActionsExecuted != 2 {
		t.Fatalf("both actions must be attempted, got %+v", result)
	}

	executions, err := f.svc.ListExecutions(context.Background(), caseID, 10)
	if err != nil {
		t.Fatalf("list executions: %v", err)
	}
	actions, err := executions[0].ParseActionsTaken()
	if err != nil {
		t.Fatalf("parse actions taken: %v", err)
	}
	if actions[0].Success || actions[0].Error == "" {
		t.Fatalf("create_debt_case must fail on an existing case, got %+v", actions[0])
	}
	if !actions[1].Success {
		t.Fatalf("sibling action must still run, got %+v", actions[1])
	}
}

func TestRunSweepSkipsClosedCases(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.node.Generate()
	f.insertCase(t, orgID, casedomain.StatusNew, 15000)
	f.insertCase(t, orgID, casedomain.StatusEscalated, 20000)
	f.insertCase(t, orgID, casedomain.StatusResolved, 9000)
	f.insertRule(t, orgID, 1,
		`{"daysOverdue":{"min":30}}`,
		`[{"type":"escalate_priority","params":{"priority":"high"}}]`,
		24, nil,
	)

	result, err := f.svc.RunSweep(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if result.CasesProcessed != 2 {
		t.Fatalf("cases processed = %d, want 2 (resolved case excluded)", result.CasesProcessed)
	}
	if result.RulesFired != 2 {
		t.Fatalf("rules fired = %d, want 2", result.RulesFired)
	}
}

func TestClaimExecutionRejectsSecondClaimInsideWindow(t *testing.T) {
	f := newEngineFixture(t)
	repo := repository.Provide()
	orgID := f.node.Generate()
	ruleID := f.node.Generate()
	caseID := f.node.Generate()
	now := f.clk.at

	claim := domain.ExecutionClaim{
		ExecutionID:   f.node.Generate(),
		OrgID:         orgID,
		RuleID:        ruleID,
		DebtCaseID:    caseID,
		ExecutedAt:    now,
		CooldownSince: now.Add(-24 * time.Hour),
	}
	claimed, err := repo.ClaimExecution(context.Background(), f.db, claim)
	if err != nil {
		t.Fatalf("first claim: %v", err)
	}
	if !claimed {
		t.Fatal("first claim must succeed")
	}

	claim.ExecutionID = f.node.Generate()
	claim.ExecutedAt = now.Add(time.Hour)
	claim.CooldownSince = claim.ExecutedAt.Add(-24 * time.Hour)
	claimed, err = repo.ClaimExecution(context.Background(), f.db, claim)
	if err != nil {
		t.Fatalf("second claim: %v", err)
	}
	if claimed {
		t.Fatal("second claim inside the cooldown window must lose")
	}
}

func TestRuleFiredEventPublished(t *testing.T) {
	f := newEngineFixture(t)
	orgID := f.node.Generate()
	caseID := f.insertCase(t, orgID, casedomain.StatusNew, 15000)
	f.insertRule(t, orgID, 1, `{}`, `[]`, 24, nil)

	if _, err := f.svc.EvaluateCase(context.Background(), caseID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	var row struct {
		EventType string
		Payload   string
	}
	err := f.db.Raw(
		`SELECT event_type, payload FROM collection_events WHERE org_id = ?`,
		orgID,
	).Scan(&row).Error
	if err != nil {
		t.Fatalf("load event: %v", err)
	}
	if row.EventType != events.EventRuleFired {
		t.Fatalf("event type = %q, want %q", row.EventType, events.EventRuleFired)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["debt_case_id"] != caseID.String() {
		t.Fatalf("payload case id = %v, want %s", payload["debt_case_id"], caseID)
	}
}
