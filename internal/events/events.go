package events

// Collection event types consumed by downstream reporting and notification
// pipelines.
const (
	EventCaseEscalated      = "case.escalated"
	EventCaseResolved       = "case.resolved"
	EventCaseStatusChanged  = "case.status_changed"
	EventPlanDefaulted      = "plan.defaulted"
	EventPlanCompleted      = "plan.completed"
	EventCallOutcomeApplied = "call.outcome_applied"
	EventRuleFired          = "rule.fired"
)

// CaseStatusPayload captures the minimal data to roll up a case transition.
type CaseStatusPayload struct {
	DebtCaseID string `json:"debt_case_id"`
	FromStatus string `json:"from_status"`
	ToStatus   string `json:"to_status"`
	Trigger    string `json:"trigger,omitempty"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p CaseStatusPayload) ToMap() map[string]any {
	payload := map[string]any{
		"debt_case_id": p.DebtCaseID,
		"from_status":  p.FromStatus,
		"to_status":    p.ToStatus,
	}
	if p.Trigger != "" {
		payload["trigger"] = p.Trigger
	}
	return payload
}

// PlanDefaultedPayload captures the minimal data to roll up a plan default.
type PlanDefaultedPayload struct {
	PaymentPlanID string `json:"payment_plan_id"`
	DebtCaseID    string `json:"debt_case_id"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p PlanDefaultedPayload) ToMap() map[string]any {
	return map[string]any{
		"payment_plan_id": p.PaymentPlanID,
		"debt_case_id":    p.DebtCaseID,
	}
}

// RuleFiredPayload captures the minimal data to roll up a rule execution.
type RuleFiredPayload struct {
	RuleID      string `json:"rule_id"`
	DebtCaseID  string `json:"debt_case_id"`
	ExecutionID string `json:"execution_id"`
}

// ToMap converts a payload into an outbox-friendly map.
func (p RuleFiredPayload) ToMap() map[string]any {
	return map[string]any{
		"rule_id":      p.RuleID,
		"debt_case_id": p.DebtCaseID,
		"execution_id": p.ExecutionID,
	}
}
