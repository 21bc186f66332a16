// Package domain contains payment plan and installment models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PlanStatus is the payment plan lifecycle state.
type PlanStatus string

const (
	PlanStatusProposed  PlanStatus = "proposed"
	PlanStatusActive    PlanStatus = "active"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusDefaulted PlanStatus = "defaulted"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// InstallmentStatus is the per-installment settlement state.
type InstallmentStatus string

const (
	InstallmentStatusPending   InstallmentStatus = "pending"
	InstallmentStatusPaid      InstallmentStatus = "paid"
	InstallmentStatusOverdue   InstallmentStatus = "overdue"
	InstallmentStatusPartial   InstallmentStatus = "partial"
	InstallmentStatusCancelled InstallmentStatus = "cancelled"
)

// ConsecutiveOverdueLimit marks a plan defaulted once this many installments
// in a row go unpaid past their due date.
const ConsecutiveOverdueLimit = 2

// PaymentPlan spreads a debt over scheduled installments.
// Invariant: PaidAmountCents + RemainingAmountCents == TotalAmountCents.
type PaymentPlan struct {
	ID                     snowflake.ID `gorm:"primaryKey"`
	OrgID                  snowflake.ID `gorm:"not null;index"`
	DebtCaseID             snowflake.ID `gorm:"not null;index"`
	CustomerID             snowflake.ID `gorm:"not null"`
	Status                 PlanStatus   `gorm:"type:text;not null;default:proposed"`
	TotalAmountCents       int64        `gorm:"not null"`
	DownPaymentCents       int64        `gorm:"not null;default:0"`
	NumberOfInstallments   int          `gorm:"not null"`
	InstallmentAmountCents int64        `gorm:"not null"`
	PaidAmountCents        int64        `gorm:"not null;default:0"`
	RemainingAmountCents   int64        `gorm:"not null"`
	DefaultedAt            *time.Time   `gorm:""`
	CreatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt              time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (PaymentPlan) TableName() string { return "payment_plans" }

// Installment is one scheduled partial payment. InstallmentNumber runs 1..N,
// unique per plan and increasing with due date.
type Installment struct {
	ID                snowflake.ID      `gorm:"primaryKey"`
	OrgID             snowflake.ID      `gorm:"not null"`
	PaymentPlanID     snowflake.ID      `gorm:"not null;index"`
	InstallmentNumber int               `gorm:"not null"`
	AmountCents       int64             `gorm:"not null"`
	DueDate           time.Time         `gorm:"not null"`
	Status            InstallmentStatus `gorm:"type:text;not null;default:pending"`
	PaidAmountCents   int64             `gorm:"not null;default:0"`
	CreatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Installment) TableName() string { return "payment_plan_installments" }
