package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrPlanNotFound        = errors.New("plan_not_found")
	ErrInstallmentNotFound = errors.New("installment_not_found")
	ErrInvalidSchedule     = errors.New("invalid_schedule")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrPlanNotActive       = errors.New("plan_not_active")
)

// CreatePlanRequest builds a plan and its amortization schedule atomically.
type CreatePlanRequest struct {
	DebtCaseID           snowflake.ID
	TotalAmountCents     int64
	DownPaymentCents     int64
	NumberOfInstallments int
	FirstDueDate         time.Time
	IntervalDays         int
}

// DetectResult summarizes one default detection pass.
type DetectResult struct {
	PlansEvaluated int `json:"plans_evaluated"`
	PlansDefaulted int `json:"plans_defaulted"`
}

// Service owns plan creation, payment application and default detection.
type Service interface {
	CreatePlan(ctx context.Context, req CreatePlanRequest) (*PaymentPlan, error)
	// ApplyPayment settles amount against an installment, rolls the totals up
	// to the plan and resolves the debt case when the plan completes.
	ApplyPayment(ctx context.Context, installmentID snowflake.ID, amountCents int64) error
	// MarkOverdue flips pending installments past their due date to overdue.
	// Idempotent; returns the number of rows transitioned.
	MarkOverdue(ctx context.Context) (int64, error)
	// DetectDefaults scans active plans for consecutive overdue installments.
	DetectDefaults(ctx context.Context) (DetectResult, error)
}
