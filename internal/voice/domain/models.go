// Package domain contains voice call records and the outcome vocabulary the
// state machine consumes.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CallStatus is the scheduling lifecycle of a call row.
type CallStatus string

const (
	CallStatusPending   CallStatus = "pending"
	CallStatusRinging   CallStatus = "ringing"
	CallStatusCompleted CallStatus = "completed"
	CallStatusFailed    CallStatus = "failed"
)

// Outcome is the analyzed result of a completed call, already translated into
// the engine's vocabulary.
type Outcome string

const (
	OutcomePromiseToPay      Outcome = "promise_to_pay"
	OutcomePaymentPlanAgreed Outcome = "payment_plan_agreed"
	OutcomeDispute           Outcome = "dispute"
	OutcomeEscalate          Outcome = "escalate"
	OutcomeCallbackRequested Outcome = "callback_requested"
	OutcomeNoAnswer          Outcome = "no_answer"
	OutcomeVoicemail         Outcome = "voicemail"
	OutcomeWrongNumber       Outcome = "wrong_number"
	OutcomeRefused           Outcome = "refused"
	OutcomeCompleted         Outcome = "completed"
)

// IsValid reports whether the outcome belongs to the vocabulary.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomePromiseToPay, OutcomePaymentPlanAgreed, OutcomeDispute,
		OutcomeEscalate, OutcomeCallbackRequested, OutcomeNoAnswer,
		OutcomeVoicemail, OutcomeWrongNumber, OutcomeRefused, OutcomeCompleted:
		return true
	}
	return false
}

// ExtractedData keys populated by call analysis.
const (
	ExtractedKeyPromisedDate = "promisedDate"
	ExtractedKeyCallbackDate = "callbackDate"
)

// VoiceCall is one scheduled call to a case's customer.
type VoiceCall struct {
	ID              snowflake.ID      `gorm:"primaryKey"`
	OrgID           snowflake.ID      `gorm:"not null;index"`
	DebtCaseID      snowflake.ID      `gorm:"not null;index"`
	VoiceAgentID    string            `gorm:"type:text;not null"`
	PhoneNumber     string            `gorm:"type:text;not null"`
	Status          CallStatus        `gorm:"type:text;not null;default:pending"`
	CallHandle      *string           `gorm:"type:text"`
	DurationSeconds *int              `gorm:""`
	Outcome         *Outcome          `gorm:"type:text"`
	ExtractedData   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	ScheduledAt     time.Time         `gorm:"not null"`
	CompletedAt     *time.Time        `gorm:""`
	CreatedAt       time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (VoiceCall) TableName() string { return "voice_calls" }
