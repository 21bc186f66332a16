package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/collecta/internal/audit/domain"
	"github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/debtcase/repository"
	"github.com/smallbiznis/collecta/internal/events"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fixedClock struct {
	at time.Time
}

func (c *fixedClock) Now() time.Time { return c.at }

type recordingAudit struct {
	entries []auditdomain.Entry
}

func (r *recordingAudit) Record(ctx context.Context, entry auditdomain.Entry) {
	r.entries = append(r.entries, entry)
}

func (r *recordingAudit) List(ctx context.Context, filter auditdomain.ListFilter) ([]*auditdomain.AuditLog, error) {
	return nil, nil
}

type caseFixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clk   *fixedClock
	audit *recordingAudit
	svc   domain.Service
}

func setupCaseTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
		`CREATE TABLE IF NOT EXISTS debt_case_activities (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			debt_case_id BIGINT NOT NULL,
			activity_type TEXT NOT NULL,
			contact_method TEXT,
			note TEXT,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS collection_agents (
			id BIGINT PRIMARY KEY,
			org_id BIGINT NOT NULL,
			name TEXT NOT NULL,
			email TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
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

func newCaseFixture(t *testing.T) *caseFixture {
	t.Helper()
	db := setupCaseTestDB(t)
	node, err := snowflake.NewNode(2)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	clk := &fixedClock{at: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	audit := &recordingAudit{}
	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     repository.Provide(),
		AuditSvc: audit,
		Outbox:   events.NewOutbox(db, node),
	})
	return &caseFixture{db: db, node: node, clk: clk, audit: audit, svc: svc}
}

func (f *caseFixture) insertCase(t *testing.T, status domain.CaseStatus) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	err := f.db.Exec(
		`INSERT INTO debt_cases (id, org_id, invoice_id, customer_id, status, priority, total_debt_cents, currency)
		 VALUES (?, ?, ?, ?, ?, 'medium', 50000, 'USD')`,
		id, f.node.Generate(), f.node.Generate(), f.node.Generate(), status,
	).Error
	if err != nil {
		t.Fatalf("insert case: %v", err)
	}
	return id
}

func TestTransitionStatusStampsEscalatedAtOnce(t *testing.T) {
	f := newCaseFixture(t)
	id := f.insertCase(t, domain.StatusNew)

	updated, err := f.svc.TransitionStatus(context.Background(), domain.TransitionRequest{
		DebtCaseID: id,
		Status:     domain.StatusEscalated,
	})
	if err != nil {
		t.Fatalf("transition: %v", err)
	}
	if updated.EscalatedAt == nil || !updated.EscalatedAt.Equal(f.clk.at) {
		t.Fatalf("escalated_at = %v, want %v", updated.EscalatedAt, f.clk.at)
	}
	firstStamp := *updated.EscalatedAt

	// Leave and re-enter escalated later; the original stamp must survive.
	f.clk.at = f.clk.at.Add(48 * time.Hour)
	if _, err := f.svc.TransitionStatus(context.Background(), domain.TransitionRequest{
		DebtCaseID: id,
		Status:     domain.StatusInProgress,
	}); err != nil {
		t.Fatalf("transition away: %v", err)
	}
	updated, err = f.svc.TransitionStatus(context.Background(), domain.TransitionRequest{
		DebtCaseID: id,
		Status:     domain.StatusEscalated,
	})
	if err != nil {
		t.Fatalf("transition back: %v", err)
	}
	if updated.EscalatedAt == nil || !updated.EscalatedAt.Equal(firstStamp) {
		t.Fatalf("escalated_at restamped: %v, want %v", updated.EscalatedAt, firstStamp)
	}
}

func TestTransitionStatusTerminalCase(t *testing.T) {
	f := newCaseFixture(t)
	id := f.insertCase(t, domain.StatusResolved)

	// Re-entering the current terminal status is a no-op.
	updated, err := f.svc.TransitionStatus(context.Background(), domain.TransitionRequest{
		DebtCaseID: id,
		Status:     domain.StatusResolved,
	})
	if err != nil {
		t.Fatalf("same terminal status: %v", err)
	}
	if updated.Status != domain.StatusResolved {
		t.Fatalf("status = %s, want resolved", updated.Status)
	}

	_, err = f.svc.TransitionStatus(context.Background(), domain.TransitionRequest{
		DebtCaseID: id,
		Status:     domain.StatusClosed,
	})
	if !errors.Is(err, domain.ErrTerminalCase) {
		t.Fatalf("expected ErrTerminalCase, got %v", err)
	}
}

func TestTransitionStatusRejectsUnknownStatus(t *testing.T) {
	f := newCaseFixture(t)
	id := f.insertCase(t, domain.StatusNew)

	_, err := f.svc.TransitionStatus(context.Background(), domain.TransitionRequest{
		DebtCaseID: id,
		Status:     domain.CaseStatus("paused"),
	})
	if !errors.Is(err, domain.ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
}

func TestTransitionStatusRecordsAudit(t *testing.T) {
	f := newCaseFixture(t)
	id := f.insertCase(t, domain.StatusNew)

	if _, err := f.svc.TransitionStatus(context.Background(), domain.TransitionRequest{
		DebtCaseID: id,
		Status:     domain.StatusContacted,
		Reason:     "reached by phone",
	}); err != nil {
		t.Fatalf("transition: %v", err)
	}
	if len(f.audit.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(f.audit.entries))
	}
	entry := f.audit.entries[0]
	if entry.Action != auditdomain.ActionCaseStatusChanged || entry.TargetID != id.String() {
		t.Fatalf("unexpected audit entry %+v", entry)
	}
}

func TestRecordActivityUpdatesLastContact(t *testing.T) {
	f := newCaseFixture(t)
	id := f.insertCase(t, domain.StatusNew)

	method := "phone"
	if err := f.svc.RecordActivity(context.Background(), domain.ActivityRequest{
		DebtCaseID:    id,
		ActivityType:  "call_attempt",
		ContactMethod: &method,
	}); err != nil {
		t.Fatalf("record activity: %v", err)
	}

	updated, err := f.svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.LastContactAt == nil || !updated.LastContactAt.Equal(f.clk.at) {
		t.Fatalf("last_contact_at = %v, want %v", updated.LastContactAt, f.clk.at)
	}
}

func TestRecordActivityWithoutContactMethod(t *testing.T) {
	f := newCaseFixture(t)
	id := f.insertCase(t, domain.StatusNew)

	if err := f.svc.RecordActivity(context.Background(), domain.ActivityRequest{
		DebtCaseID:   id,
		ActivityType: "note_added",
		Note:         "left internal note",
	}); err != nil {
		t.Fatalf("record activity: %v", err)
	}

	updated, err := f.svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.LastContactAt != nil {
		t.Fatalf("last_contact_at = %v, want nil for non-contact activity", updated.LastContactAt)
	}
}

func TestAssignAgentUnknownAgent(t *testing.T) {
	f := newCaseFixture(t)
	id := f.insertCase(t, domain.StatusNew)

	err := f.svc.AssignAgent(context.Background(), id, f.node.Generate())
	if !errors.Is(err, domain.ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestResolveFromPlanCompletion(t *testing.T) {
	f := newCaseFixture(t)
	id := f.insertCase(t, domain.StatusPaymentPlan)

	if err := f.svc.ResolveFromPlanCompletion(context.Background(), id); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	updated, err := f.svc.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if updated.Status != domain.StatusResolved {
		t.Fatalf("status = %s, want resolved", updated.Status)
	}
	if updated.ResolvedAt == nil {
		t.Fatal("resolved_at not stamped")
	}

	// Second resolution is a no-op.
	if err := f.svc.ResolveFromPlanCompletion(context.Background(), id); err != nil {
		t.Fatalf("re-resolve: %v", err)
	}
}

func TestGetUnknownCase(t *testing.T) {
	f := newCaseFixture(t)

	_, err := f.svc.Get(context.Background(), f.node.Generate())
	if !errors.Is(err, domain.ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}
