package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/paymentplan/domain"
	"gorm.io/gorm"
)

type Repository struct{}

func Provide() domain.Repository {
	return &Repository{}
}

func (r *Repository) InsertPlan(ctx context.Context, db *gorm.DB, plan *domain.PaymentPlan, installments []domain.Installment) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(plan).Error; err != nil {
			return err
		}
		return tx.Create(&installments).Error
	})
}

func (r *Repository) FindPlan(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.PaymentPlan, error) {
	var row domain.PaymentPlan
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_plans WHERE id = ?`,
		id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *Repository) FindInstallment(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Installment, error) {
	var row domain.Installment
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM payment_plan_installments WHERE id = ?`,
		id,
	).Scan(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *Repository) ListInstallments(ctx context.Context, db *gorm.DB, planID snowflake.ID) ([]domain.Installment, error) {
	var rows []domain.Installment
	err := db.WithContext(ctx).Raw(
		`SELECT *
		 FROM payment_plan_installments
		 WHERE payment_plan_id = ?
		 ORDER BY installment_number ASC`,
		planID,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) UpdateInstallment(ctx context.Context, db *gorm.DB, installment *domain.Installment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_plan_installments
		 SET status = ?, paid_amount_cents = ?, updated_at = ?
		 WHERE id = ?`,
		installment.Status,
		installment.PaidAmountCents,
		time.Now().UTC(),
		installment.ID,
	).Error
}

func (r *Repository) UpdatePlanAmounts(ctx context.Context, db *gorm.DB, amounts domain.PlanAmounts) error {
	if amounts.Status != nil {
		return db.WithContext(ctx).Exec(
			`UPDATE payment_plans
			 SET paid_amount_cents = ?, remaining_amount_cents = ?, status = ?, updated_at = ?
			 WHERE id = ?`,
			amounts.PaidCents,
			amounts.RemainingCents,
			*amounts.Status,
			time.Now().UTC(),
			amounts.PlanID,
		).Error
	}
	return db.WithContext(ctx).Exec(
		`UPDATE payment_plans
		 SET paid_amount_cents = ?, remaining_amount_cents = ?, updated_at = ?
		 WHERE id = ?`,
		amounts.PaidCents,
		amounts.RemainingCents,
		time.Now().UTC(),
		amounts.PlanID,
	).Error
}

func (r *Repository) ListActivePlans(ctx context.Context, db *gorm.DB, afterID snowflake.ID, limit int) ([]domain.PaymentPlan, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []domain.PaymentPlan
	err := db.WithContext(ctx).Raw(
		`SELECT *
		 FROM payment_plans
		 WHERE status = ? AND id > ?
		 ORDER BY id ASC
		 LIMIT ?`,
		domain.PlanStatusActive,
		afterID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) MarkDefaulted(ctx context.Context, db *gorm.DB, planID snowflake.ID, at time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payment_plans
		 SET status = ?, defaulted_at = COALESCE(defaulted_at, ?), updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.PlanStatusDefaulted,
		at,
		at,
		planID,
		domain.PlanStatusActive,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) MarkOverdueInstallments(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE payment_plan_installments
		 SET status = ?, updated_at = ?
		 WHERE status = ? AND due_date < ?`,
		domain.InstallmentStatusOverdue,
		now,
		domain.InstallmentStatusPending,
		now,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
