package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrCaseNotFound      = errors.New("case_not_found")
	ErrAgentNotFound     = errors.New("agent_not_found")
	ErrCustomerNotFound  = errors.New("customer_not_found")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidPriority   = errors.New("invalid_priority")
	ErrTerminalCase      = errors.New("case_terminal")
	ErrNoPhoneOnFile     = errors.New("no_phone_on_file")
	ErrCaseAlreadyExists = errors.New("case_already_exists")
)

// TransitionRequest is a manual status change requested by an operator.
type TransitionRequest struct {
	DebtCaseID snowflake.ID
	Status     CaseStatus
	Reason     string
}

// ActivityRequest records a touchpoint; a non-nil ContactMethod updates the
// case's last contact timestamp.
type ActivityRequest struct {
	DebtCaseID    snowflake.ID
	ActivityType  string
	ContactMethod *string
	Note          string
	Metadata      map[string]any
}

// Service owns the debt case status state machine.
type Service interface {
	Get(ctx context.Context, id snowflake.ID) (*DebtCase, error)
	TransitionStatus(ctx context.Context, req TransitionRequest) (*DebtCase, error)
	RecordActivity(ctx context.Context, req ActivityRequest) error
	EscalatePriority(ctx context.Context, id snowflake.ID, priority CasePriority) error
	AssignAgent(ctx context.Context, caseID, agentID snowflake.ID) error
	SetNextAction(ctx context.Context, id snowflake.ID, at time.Time) error
	ResolveFromPlanCompletion(ctx context.Context, id snowflake.ID) error
}
