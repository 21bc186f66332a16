package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ActorType represents who triggered an action.
type ActorType string

const (
	ActorTypeOperator ActorType = "operator"
	ActorTypeSystem   ActorType = "system"
)

// Audited actions and target types for the collections engine.
const (
	ActionCaseStatusChanged = "case.status_changed"
	ActionCaseResolved      = "case.resolved"
	ActionJobTriggered      = "job.triggered"

	TargetTypeDebtCase = "debt_case"
	TargetTypeJob      = "job"
)

// AuditLog captures an immutable record of a collections action.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	OrgID      *snowflake.ID     `gorm:"index"`
	ActorType  string            `gorm:"type:text;not null"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
