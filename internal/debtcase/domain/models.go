// Package domain contains persistence models and vocabulary for debt cases.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CaseStatus is the debt case lifecycle state.
type CaseStatus string

const (
	StatusNew         CaseStatus = "new"
	StatusContacted   CaseStatus = "contacted"
	StatusInProgress  CaseStatus = "in_progress"
	StatusPaymentPlan CaseStatus = "payment_plan"
	StatusEscalated   CaseStatus = "escalated"
	StatusLegal       CaseStatus = "legal"
	StatusResolved    CaseStatus = "resolved"
	StatusClosed      CaseStatus = "closed"
	StatusWrittenOff  CaseStatus = "written_off"
)

// IsTerminal reports whether the status ends the case lifecycle.
func (s CaseStatus) IsTerminal() bool {
	switch s {
	case StatusResolved, StatusClosed, StatusWrittenOff:
		return true
	}
	return false
}

// IsValid reports whether the status belongs to the closed vocabulary.
func (s CaseStatus) IsValid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusInProgress, StatusPaymentPlan,
		StatusEscalated, StatusLegal, StatusResolved, StatusClosed, StatusWrittenOff:
		return true
	}
	return false
}

// SweepStatuses are the statuses the rule engine evaluates.
var SweepStatuses = []CaseStatus{
	StatusNew,
	StatusContacted,
	StatusInProgress,
	StatusPaymentPlan,
	StatusEscalated,
}

// CasePriority orders cases for collection effort.
type CasePriority string

const (
	PriorityLow      CasePriority = "low"
	PriorityMedium   CasePriority = "medium"
	PriorityHigh     CasePriority = "high"
	PriorityCritical CasePriority = "critical"
)

// IsValid reports whether the priority belongs to the closed vocabulary.
func (p CasePriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// DebtCase tracks the collection workflow for one overdue invoice.
type DebtCase struct {
	ID              snowflake.ID  `gorm:"primaryKey"`
	OrgID           snowflake.ID  `gorm:"not null;index"`
	InvoiceID       snowflake.ID  `gorm:"not null"`
	CustomerID      snowflake.ID  `gorm:"not null"`
	Status          CaseStatus    `gorm:"type:text;not null;default:new"`
	Priority        CasePriority  `gorm:"type:text;not null;default:medium"`
	AssignedAgentID *snowflake.ID `gorm:""`
	TotalDebtCents  int64         `gorm:"not null"`
	Currency        string        `gorm:"type:text;not null"`
	LastContactAt   *time.Time    `gorm:""`
	NextActionAt    *time.Time    `gorm:""`
	EscalatedAt     *time.Time    `gorm:""`
	ResolvedAt      *time.Time    `gorm:""`
	DeletedAt       *time.Time    `gorm:"index"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (DebtCase) TableName() string { return "debt_cases" }

// CaseActivity records one touchpoint on a debt case.
type CaseActivity struct {
	ID            snowflake.ID      `gorm:"primaryKey"`
	OrgID         snowflake.ID      `gorm:"not null"`
	DebtCaseID    snowflake.ID      `gorm:"not null;index"`
	ActivityType  string            `gorm:"type:text;not null"`
	ContactMethod *string           `gorm:"type:text"`
	Note          string            `gorm:"type:text"`
	Metadata      datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt     time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CaseActivity) TableName() string { return "debt_case_activities" }

// CollectionAgent is an assignable human collector.
type CollectionAgent struct {
	ID        snowflake.ID `gorm:"primaryKey"`
	OrgID     snowflake.ID `gorm:"not null;index"`
	Name      string       `gorm:"type:text;not null"`
	Email     string       `gorm:"type:text;not null"`
	IsActive  bool         `gorm:"not null;default:true"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (CollectionAgent) TableName() string { return "collection_agents" }

// Contact is the resolved reachability snapshot for a case's customer.
type Contact struct {
	CustomerID     snowflake.ID
	Phone          string
	Email          string
	InvoiceDueDate time.Time
}
