package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrRuleNotFound     = errors.New("rule_not_found")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrActionNotOnCase  = errors.New("create_debt_case_not_applicable_to_existing_case")
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// Result summarizes one orchestrator run.
type Result struct {
	CasesProcessed  int `json:"cases_processed"`
	RulesFired      int `json:"rules_fired"`
	ActionsExecuted int `json:"actions_executed"`
}

// Service is the rule engine entry point used by the scheduler and the API.
type Service interface {
	// EvaluateCase runs every active rule against one case.
	EvaluateCase(ctx context.Context, debtCaseID snowflake.ID) (Result, error)
	// RunSweep evaluates all open cases. Safe to re-run; bounded by cooldowns
	// and quotas.
	RunSweep(ctx context.Context) (Result, error)
	// ListExecutions exposes the audit trail for one case.
	ListExecutions(ctx context.Context, debtCaseID snowflake.ID, limit int) ([]RuleExecution, error)
}
