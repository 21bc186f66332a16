package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
)

var (
	ErrInvalidOutcome   = errors.New("invalid_outcome")
	ErrProviderNotFound = errors.New("voice_provider_not_found")
	ErrProviderFailure  = errors.New("voice_provider_failure")
)

// ScheduleRequest asks for an immediate pending call to a case's customer.
type ScheduleRequest struct {
	DebtCaseID   snowflake.ID
	VoiceAgentID string
}

// OutcomeRequest feeds one analyzed call result into the state machine.
type OutcomeRequest struct {
	DebtCaseID    snowflake.ID
	Outcome       Outcome
	ExtractedData map[string]any
}

// Service schedules calls and maps call outcomes onto case state.
type Service interface {
	ScheduleCall(ctx context.Context, req ScheduleRequest) (*VoiceCall, error)
	ApplyOutcome(ctx context.Context, req OutcomeRequest) (*casedomain.DebtCase, error)
}
