package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// CaseUpdate carries the mutable fields a transition writes back.
type CaseUpdate struct {
	ID            snowflake.ID
	Status        *CaseStatus
	Priority      *CasePriority
	AgentID       *snowflake.ID
	LastContactAt *time.Time
	NextActionAt  *time.Time
	EscalatedAt   *time.Time
	ResolvedAt    *time.Time
}

// Repository is the debt case persistence boundary. Soft-deleted rows are
// filtered here, never in business logic.
type Repository interface {
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (*DebtCase, error)
	Update(ctx context.Context, db *gorm.DB, update CaseUpdate) error
	InsertActivity(ctx context.Context, db *gorm.DB, activity *CaseActivity) error
	FindAgent(ctx context.Context, db *gorm.DB, orgID, agentID snowflake.ID) (*CollectionAgent, error)
}

// ContactResolver resolves reachability data for a case's customer. Implemented
// over the platform's invoice/customer tables.
type ContactResolver interface {
	ResolveContact(ctx context.Context, debtCaseID snowflake.ID) (*Contact, error)
}
