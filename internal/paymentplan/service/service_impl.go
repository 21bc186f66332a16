package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/clock"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/events"
	"github.com/smallbiznis/collecta/internal/paymentplan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Repo    domain.Repository
	CaseSvc casedomain.Service
	Outbox  *events.Outbox
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    domain.Repository
	caseSvc casedomain.Service
	outbox  *events.Outbox
}

func NewService(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("paymentplan.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		caseSvc: p.CaseSvc,
		outbox:  p.Outbox,
	}
}

// CreatePlan builds the plan and its amortization schedule in one
// transaction. The final installment absorbs the rounding remainder so the
// schedule sums exactly to the financed amount.
func (s *Service) CreatePlan(ctx context.Context, req domain.CreatePlanRequest) (*domain.PaymentPlan, error) {
	if req.NumberOfInstallments <= 0 || req.IntervalDays <= 0 {
		return nil, domain.ErrInvalidSchedule
	}
	financed := req.TotalAmountCents - req.DownPaymentCents
	if req.TotalAmountCents <= 0 || req.DownPaymentCents < 0 || financed <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	dcase, err := s.caseSvc.Get(ctx, req.DebtCaseID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	perInstallment := financed / int64(req.NumberOfInstallments)
	remainder := financed - perInstallment*int64(req.NumberOfInstallments)

	plan := &domain.PaymentPlan{
		ID:                     s.genID.Generate(),
		OrgID:                  dcase.OrgID,
		DebtCaseID:             dcase.ID,
		CustomerID:             dcase.CustomerID,
		Status:                 domain.PlanStatusActive,
		TotalAmountCents:       req.TotalAmountCents,
		DownPaymentCents:       req.DownPaymentCents,
		NumberOfInstallments:   req.NumberOfInstallments,
		InstallmentAmountCents: perInstallment,
		PaidAmountCents:        req.DownPaymentCents,
		RemainingAmountCents:   financed,
		CreatedAt:              now,
		UpdatedAt:              now,
	}

	installments := make([]domain.Installment, 0, req.NumberOfInstallments)
	dueDate := req.FirstDueDate
	for number := 1; number <= req.NumberOfInstallments; number++ {
		amount := perInstallment
		if number == req.NumberOfInstallments {
			amount += remainder
		}
		installments = append(installments, domain.Installment{
			ID:                s.genID.Generate(),
			OrgID:             dcase.OrgID,
			PaymentPlanID:     plan.ID,
			InstallmentNumber: number,
			AmountCents:       amount,
			DueDate:           dueDate,
			Status:            domain.InstallmentStatusPending,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		dueDate = dueDate.AddDate(0, 0, req.IntervalDays)
	}

	if err := s.repo.InsertPlan(ctx, s.db, plan, installments); err != nil {
		return nil, err
	}

	if _, err := s.caseSvc.TransitionStatus(ctx, casedomain.TransitionRequest{
		DebtCaseID: dcase.ID,
		Status:     casedomain.StatusPaymentPlan,
		Reason:     "payment_plan_created",
	}); err != nil {
		s.log.Warn("case transition after plan creation failed",
			zap.String("debt_case_id", dcase.ID.String()),
			zap.Error(err),
		)
	}
	return plan, nil
}

// ApplyPayment settles amount against one installment and rolls the totals up
// to the plan. Full settlement of the last open installment completes the plan
// and resolves the debt case.
func (s *Service) ApplyPayment(ctx context.Context, installmentID snowflake.ID, amountCents int64) error {
	if amountCents <= 0 {
		return domain.ErrInvalidAmount
	}

	var completed *domain.PaymentPlan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		installment, err := s.repo.FindInstallment(ctx, tx, installmentID)
		if err != nil {
			return err
		}
		if installment == nil {
			return domain.ErrInstallmentNotFound
		}
		plan, err := s.repo.FindPlan(ctx, tx, installment.PaymentPlanID)
		if err != nil {
			return err
		}
		if plan == nil {
			return domain.ErrPlanNotFound
		}
		if plan.Status != domain.PlanStatusActive {
			return domain.ErrPlanNotActive
		}

		installment.PaidAmountCents += amountCents
		if installment.PaidAmountCents >= installment.AmountCents {
			installment.Status = domain.InstallmentStatusPaid
		} else {
			installment.Status = domain.InstallmentStatusPartial
		}
		if err := s.repo.UpdateInstallment(ctx, tx, installment); err != nil {
			return err
		}

		amounts := domain.PlanAmounts{
			PlanID:         plan.ID,
			PaidCents:      plan.PaidAmountCents + amountCents,
			RemainingCents: plan.RemainingAmountCents - amountCents,
		}
		if amounts.RemainingCents < 0 {
			amounts.RemainingCents = 0
		}

		settled, err := s.allSettled(ctx, tx, plan.ID, installment)
		if err != nil {
			return err
		}
		if settled {
			status := domain.PlanStatusCompleted
			amounts.Status = &status
			completed = plan
		}
		return s.repo.UpdatePlanAmounts(ctx, tx, amounts)
	})
	if err != nil {
		return err
	}

	if completed != nil {
		if err := s.caseSvc.ResolveFromPlanCompletion(ctx, completed.DebtCaseID); err != nil {
			s.log.Warn("case resolution after plan completion failed",
				zap.String("debt_case_id", completed.DebtCaseID.String()),
				zap.Error(err),
			)
		}
		if err := s.outbox.Publish(ctx, events.Event{
			OrgID: completed.OrgID,
			Type:  events.EventPlanCompleted,
			Payload: map[string]any{
				"payment_plan_id": completed.ID.String(),
				"debt_case_id":    completed.DebtCaseID.String(),
			},
			DedupeKey: "plan_completed:" + completed.ID.String(),
		}); err != nil {
			s.log.Warn("plan completed event publish failed", zap.Error(err))
		}
	}
	return nil
}

// allSettled reports whether every installment of the plan is paid or
// cancelled, taking the in-flight update into account.
func (s *Service) allSettled(ctx context.Context, tx *gorm.DB, planID snowflake.ID, updated *domain.Installment) (bool, error) {
	installments, err := s.repo.ListInstallments(ctx, tx, planID)
	if err != nil {
		return false, err
	}
	for _, installment := range installments {
		status := installment.Status
		if installment.ID == updated.ID {
			status = updated.Status
		}
		switch status {
		case domain.InstallmentStatusPaid, domain.InstallmentStatusCancelled:
		default:
			return false, nil
		}
	}
	return len(installments) > 0, nil
}

func (s *Service) MarkOverdue(ctx context.Context) (int64, error) {
	return s.repo.MarkOverdueInstallments(ctx, s.db, s.clock.Now())
}

// DetectDefaults scans each active plan's installments in schedule order,
// counting consecutive overdue installments. A paid installment resets the
// run; hitting the limit defaults the plan and stops its scan.
func (s *Service) DetectDefaults(ctx context.Context) (domain.DetectResult, error) {
	result := domain.DetectResult{}
	var afterID snowflake.ID

	for {
		plans, err := s.repo.ListActivePlans(ctx, s.db, afterID, 100)
		if err != nil {
			return result, err
		}
		if len(plans) == 0 {
			return result, nil
		}

		for _, plan := range plans {
			afterID = plan.ID
			result.PlansEvaluated++

			defaulted, err := s.detectPlan(ctx, plan)
			if err != nil {
				s.log.Warn("plan default scan failed",
					zap.String("payment_plan_id", plan.ID.String()),
					zap.Error(err),
				)
				continue
			}
			if defaulted {
				result.PlansDefaulted++
			}
		}
	}
}

func (s *Service) detectPlan(ctx context.Context, plan domain.PaymentPlan) (bool, error) {
	installments, err := s.repo.ListInstallments(ctx, s.db, plan.ID)
	if err != nil {
		return false, err
	}

	consecutive := 0
	for _, installment := range installments {
		switch installment.Status {
		case domain.InstallmentStatusPaid:
			consecutive = 0
		case domain.InstallmentStatusOverdue:
			consecutive++
		}
		if consecutive < domain.ConsecutiveOverdueLimit {
			continue
		}

		marked, err := s.repo.MarkDefaulted(ctx, s.db, plan.ID, s.clock.Now())
		if err != nil {
			return false, err
		}
		if marked {
			payload := events.PlanDefaultedPayload{
				PaymentPlanID: plan.ID.String(),
				DebtCaseID:    plan.DebtCaseID.String(),
			}
			if err := s.outbox.Publish(ctx, events.Event{
				OrgID:     plan.OrgID,
				Type:      events.EventPlanDefaulted,
				Payload:   payload.ToMap(),
				DedupeKey: "plan_defaulted:" + plan.ID.String(),
			}); err != nil {
				s.log.Warn("plan defaulted event publish failed", zap.Error(err))
			}
		}
		return marked, nil
	}
	return false, nil
}
