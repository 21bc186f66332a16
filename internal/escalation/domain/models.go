// Package domain contains the escalation rule vocabulary: condition sets,
// typed actions and the append-only execution history.
package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"gorm.io/datatypes"
)

// ActionType is the closed catalog of rule actions.
type ActionType string

const (
	ActionEscalatePriority ActionType = "escalate_priority"
	ActionAssignAgent      ActionType = "assign_agent"
	ActionAddToCampaign    ActionType = "add_to_campaign"
	ActionVoiceCall        ActionType = "voice_call"
	ActionSendEmail        ActionType = "send_email"
	ActionSendSMS          ActionType = "send_sms"
	ActionCreateDebtCase   ActionType = "create_debt_case"
)

// IsValid reports whether the action type belongs to the catalog.
func (t ActionType) IsValid() bool {
	switch t {
	case ActionEscalatePriority, ActionAssignAgent, ActionAddToCampaign,
		ActionVoiceCall, ActionSendEmail, ActionSendSMS, ActionCreateDebtCase:
		return true
	}
	return false
}

// IntRange is a closed or half-open numeric constraint. Nil bounds are open.
type IntRange struct {
	Min *int64 `json:"min,omitempty"`
	Max *int64 `json:"max,omitempty"`
}

// Contains reports whether value satisfies the range.
func (r *IntRange) Contains(value int64) bool {
	if r == nil {
		return true
	}
	if r.Min != nil && value < *r.Min {
		return false
	}
	if r.Max != nil && value > *r.Max {
		return false
	}
	return true
}

// ConditionSet is the ANDed predicate set of a rule. Absent constraints are
// vacuously true.
type ConditionSet struct {
	DaysOverdue        *IntRange               `json:"daysOverdue,omitempty"`
	DebtAmount         *IntRange               `json:"debtAmount,omitempty"`
	Status             []casedomain.CaseStatus `json:"status,omitempty"`
	PreviousAttempts   *IntRange               `json:"previousAttempts,omitempty"`
	LastContactDaysAgo *IntRange               `json:"lastContactDaysAgo,omitempty"`
}

// ActionSpec is one typed action descriptor in a rule's ordered action list.
type ActionSpec struct {
	Type   ActionType   `json:"type"`
	Params ActionParams `json:"params,omitempty"`
}

// ActionParams carries the per-type parameters; only the fields the action
// type reads are meaningful. Validated at authoring time, never at evaluation.
type ActionParams struct {
	Priority     string `json:"priority,omitempty"`
	AgentID      string `json:"agentId,omitempty"`
	CampaignID   string `json:"campaignId,omitempty"`
	VoiceAgentID string `json:"voiceAgentId,omitempty"`
	TemplateID   string `json:"templateId,omitempty"`
}

// EscalationRule is a condition-to-action automation with throttling.
type EscalationRule struct {
	ID            snowflake.ID   `gorm:"primaryKey"`
	OrgID         snowflake.ID   `gorm:"not null;index"`
	Name          string         `gorm:"type:text;not null"`
	Priority      int            `gorm:"not null;default:0"`
	IsActive      bool           `gorm:"not null;default:true"`
	Conditions    datatypes.JSON `gorm:"type:jsonb;not null"`
	Actions       datatypes.JSON `gorm:"type:jsonb;not null"`
	CooldownHours int            `gorm:"not null;default:24"`
	MaxExecutions *int           `gorm:""`
	CreatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (EscalationRule) TableName() string { return "escalation_rules" }

// ParseConditions decodes the stored condition set.
func (r *EscalationRule) ParseConditions() (ConditionSet, error) {
	var set ConditionSet
	if len(r.Conditions) == 0 {
		return set, nil
	}
	if err := json.Unmarshal(r.Conditions, &set); err != nil {
		return ConditionSet{}, err
	}
	return set, nil
}

// ParseActions decodes the stored ordered action list.
func (r *EscalationRule) ParseActions() ([]ActionSpec, error) {
	if len(r.Actions) == 0 {
		return nil, nil
	}
	var specs []ActionSpec
	if err := json.Unmarshal(r.Actions, &specs); err != nil {
		return nil, err
	}
	return specs, nil
}

// ActionResult records one action attempt inside an execution.
type ActionResult struct {
	Type    ActionType `json:"type"`
	Success bool       `json:"success"`
	Result  string     `json:"result,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// RuleExecution is one append-only firing attempt. It is the sole basis for
// cooldown and quota checks; never summarized into mutable counters.
type RuleExecution struct {
	ID           snowflake.ID   `gorm:"primaryKey"`
	OrgID        snowflake.ID   `gorm:"not null"`
	RuleID       snowflake.ID   `gorm:"not null;index"`
	DebtCaseID   snowflake.ID   `gorm:"not null;index"`
	ActionsTaken datatypes.JSON `gorm:"type:jsonb;not null"`
	ExecutedAt   time.Time      `gorm:"not null"`
}

// TableName sets the database table name.
func (RuleExecution) TableName() string { return "escalation_rule_executions" }

// ParseActionsTaken decodes the recorded action results.
func (e *RuleExecution) ParseActionsTaken() ([]ActionResult, error) {
	if len(e.ActionsTaken) == 0 {
		return nil, nil
	}
	var results []ActionResult
	if err := json.Unmarshal(e.ActionsTaken, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// CaseFeatures is the computed snapshot a rule's conditions are evaluated
// against. LastContactDaysAgo is nil when the case was never contacted.
type CaseFeatures struct {
	DaysOverdue        int64
	TotalDebtCents     int64
	Status             casedomain.CaseStatus
	PreviousAttempts   int64
	LastContactDaysAgo *int64
}
