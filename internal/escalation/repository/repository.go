package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/escalation/domain"
	"gorm.io/gorm"
)

type Repository struct{}

func Provide() domain.Repository {
	return &Repository{}
}

func (r *Repository) ListActiveRules(ctx context.Context, db *gorm.DB, orgID snowflake.ID) ([]domain.EscalationRule, error) {
	var rules []domain.EscalationRule
	err := db.WithContext(ctx).Raw(
		`SELECT *
		 FROM escalation_rules
		 WHERE org_id = ? AND is_active
		 ORDER BY priority ASC, id ASC`,
		orgID,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *Repository) ListExecutionTimes(ctx context.Context, db *gorm.DB, ruleID, debtCaseID snowflake.ID) ([]time.Time, error) {
	var times []time.Time
	err := db.WithContext(ctx).Raw(
		`SELECT executed_at
		 FROM escalation_rule_executions
		 WHERE rule_id = ? AND debt_case_id = ?
		 ORDER BY executed_at DESC`,
		ruleID,
		debtCaseID,
	).Scan(&times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}

func (r *Repository) CountExecutionsForCase(ctx context.Context, db *gorm.DB, debtCaseID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(1)
		 FROM escalation_rule_executions
		 WHERE debt_case_id = ?`,
		debtCaseID,
	).Scan(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ClaimExecution appends the attempt row only while the cooldown window is
// clear and the quota has room, in a single statement, so two concurrent
// sweeps cannot both fire the same (rule, case) pair.
func (r *Repository) ClaimExecution(ctx context.Context, db *gorm.DB, claim domain.ExecutionClaim) (bool, error) {
	query := `INSERT INTO escalation_rule_executions (id, org_id, rule_id, debt_case_id, actions_taken, executed_at)
		 SELECT ?, ?, ?, ?, '[]', ?
		 WHERE NOT EXISTS (
			SELECT 1 FROM escalation_rule_executions
			WHERE rule_id = ? AND debt_case_id = ? AND executed_at > ?
		 )`
	args := []any{
		claim.ExecutionID,
		claim.OrgID,
		claim.RuleID,
		claim.DebtCaseID,
		claim.ExecutedAt,
		claim.RuleID,
		claim.DebtCaseID,
		claim.CooldownSince,
	}
	if claim.MaxExecutions != nil {
		query += ` AND (
			SELECT COUNT(1) FROM escalation_rule_executions
			WHERE rule_id = ? AND debt_case_id = ?
		 ) < ?`
		args = append(args, claim.RuleID, claim.DebtCaseID, *claim.MaxExecutions)
	}

	result := db.WithContext(ctx).Exec(query, args...)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) SetActionsTaken(ctx context.Context, db *gorm.DB, executionID snowflake.ID, results []domain.ActionResult) error {
	encoded, err := json.Marshal(results)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		`UPDATE escalation_rule_executions
		 SET actions_taken = ?
		 WHERE id = ?`,
		string(encoded),
		executionID,
	).Error
}

func (r *Repository) ListExecutionsForCase(ctx context.Context, db *gorm.DB, debtCaseID snowflake.ID, limit int) ([]domain.RuleExecution, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows []domain.RuleExecution
	err := db.WithContext(ctx).Raw(
		`SELECT *
		 FROM escalation_rule_executions
		 WHERE debt_case_id = ?
		 ORDER BY executed_at DESC
		 LIMIT ?`,
		debtCaseID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) FetchSweepCases(ctx context.Context, db *gorm.DB, statuses []casedomain.CaseStatus, afterID snowflake.ID, limit int) ([]domain.SweepCase, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []domain.SweepCase
	err := db.WithContext(ctx).Raw(
		`SELECT id
		 FROM debt_cases
		 WHERE status IN ? AND deleted_at IS NULL AND id > ?
		 ORDER BY id ASC
		 LIMIT ?`,
		statuses,
		afterID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
