package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

// Entry describes one auditable action.
type Entry struct {
	OrgID      snowflake.ID
	ActorType  ActorType
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	Metadata   map[string]any
}

// Service records audit entries. Recording never fails the caller's operation;
// failures are logged by the implementation.
type Service interface {
	Record(ctx context.Context, entry Entry)
	List(ctx context.Context, filter ListFilter) ([]*AuditLog, error)
}
