package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// PlanAmounts carries the rollup written back after a payment.
type PlanAmounts struct {
	PlanID         snowflake.ID
	PaidCents      int64
	RemainingCents int64
	Status         *PlanStatus
}

type Repository interface {
	InsertPlan(ctx context.Context, db *gorm.DB, plan *PaymentPlan, installments []Installment) error
	FindPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*PaymentPlan, error)
	FindInstallment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Installment, error)
	// ListInstallments returns a plan's installments in ascending
	// installment number.
	ListInstallments(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]Installment, error)
	UpdateInstallment(ctx context.Context, db *gorm.DB, installment *Installment) error
	UpdatePlanAmounts(ctx context.Context, db *gorm.DB, amounts PlanAmounts) error
	// ListActivePlans pages through active plans in id order.
	ListActivePlans(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]PaymentPlan, error)
	// MarkDefaulted stamps defaulted_at once; re-marking is a no-op.
	MarkDefaulted(ctx context.Context, db *gorm.DB, planID snowflake.ID, at time.Time) (bool, error)
	// MarkOverdueInstallments flips pending rows past due. Idempotent.
	MarkOverdueInstallments(ctx context.Context, db *gorm.DB, now time.Time) (int64, error)
}
