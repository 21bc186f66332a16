package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"gorm.io/gorm"
)

// ExecutionClaim is the atomic insert that both records an attempt and locks
// out concurrent sweeps: the row lands only if no execution exists inside the
// cooldown window and the quota still has room.
type ExecutionClaim struct {
	ExecutionID   snowflake.ID
	OrgID         snowflake.ID
	RuleID        snowflake.ID
	DebtCaseID    snowflake.ID
	ExecutedAt    time.Time
	CooldownSince time.Time
	MaxExecutions *int
}

// SweepCase is one candidate row in a sweep batch.
type SweepCase struct {
	ID snowflake.ID
}

type Repository interface {
	// ListActiveRules returns the org's active rules in ascending priority.
	ListActiveRules(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]EscalationRule, error)
	// ListExecutionTimes returns execution timestamps for one (rule, case)
	// pair, most recent first.
	ListExecutionTimes(ctx context.Context, db *gorm.DB, ruleID, debtCaseID snowflake.ID) ([]time.Time, error)
	// CountExecutionsForCase counts attempts across all rules for one case.
	CountExecutionsForCase(ctx context.Context, db *gorm.DB, debtCaseID snowflake.ID) (int64, error)
	// ClaimExecution performs the conditional append. Returns false when the
	// cooldown window or quota blocked the claim.
	ClaimExecution(ctx context.Context, db *gorm.DB, claim ExecutionClaim) (bool, error)
	// SetActionsTaken persists the action results onto a claimed execution.
	SetActionsTaken(ctx context.Context, db *gorm.DB, executionID snowflake.ID, results []ActionResult) error
	// ListExecutionsForCase returns the audit trail for one case, most recent
	// first.
	ListExecutionsForCase(ctx context.Context, db *gorm.DB, debtCaseID snowflake.ID, limit int) ([]RuleExecution, error)
	// FetchSweepCases pages through evaluable cases in id order.
	FetchSweepCases(ctx context.Context, db *gorm.DB, statuses []casedomain.CaseStatus, afterID snowflake.ID, limit int) ([]SweepCase, error)
}
