package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/collecta/internal/audit/domain"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/events"
	obscontext "github.com/smallbiznis/collecta/internal/observability/context"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Repo     domain.Repository
	AuditSvc auditdomain.Service
	Outbox   *events.Outbox
}

// Service owns every debt case status transition.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	repo     domain.Repository
	auditSvc auditdomain.Service
	outbox   *events.Outbox
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("debtcase.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		auditSvc: p.AuditSvc,
		outbox:   p.Outbox,
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.DebtCase, error) {
	row, err := s.repo.Find(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, domain.ErrCaseNotFound
	}
	return row, nil
}

// TransitionStatus applies a manual operator transition. Any non-terminal case
// may move to any other status. Entering escalated or resolved for the first
// time stamps the matching timestamp; re-entering a current terminal status is
// a no-op and never re-stamps.
func (s *Service) TransitionStatus(ctx context.Context, req domain.TransitionRequest) (*domain.DebtCase, error) {
	if !req.Status.IsValid() {
		return nil, domain.ErrInvalidStatus
	}

	var updated *domain.DebtCase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.Find(ctx, tx, req.DebtCaseID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrCaseNotFound
		}
		if row.Status.IsTerminal() {
			if row.Status == req.Status {
				updated = row
				return nil
			}
			return domain.ErrTerminalCase
		}
		if row.Status == req.Status {
			updated = row
			return nil
		}

		from := row.Status
		now := s.clock.Now()
		update := domain.CaseUpdate{ID: row.ID, Status: &req.Status}
		if req.Status == domain.StatusEscalated && row.EscalatedAt == nil {
			update.EscalatedAt = &now
		}
		if req.Status == domain.StatusResolved && row.ResolvedAt == nil {
			update.ResolvedAt = &now
		}
		if err := s.repo.Update(ctx, tx, update); err != nil {
			return err
		}

		if err := s.publishStatusChange(ctx, tx, row, from, req.Status, "manual"); err != nil {
			return err
		}

		row.Status = req.Status
		if update.EscalatedAt != nil {
			row.EscalatedAt = update.EscalatedAt
		}
		if update.ResolvedAt != nil {
			row.ResolvedAt = update.ResolvedAt
		}
		updated = row
		return nil
	})
	if err != nil {
		return nil, err
	}

	actorType, actorID := obscontext.ActorFromContext(ctx)
	if actorType == "" {
		actorType = string(auditdomain.ActorTypeOperator)
	}
	s.auditSvc.Record(ctx, auditdomain.Entry{
		OrgID:      updated.OrgID,
		ActorType:  auditdomain.ActorType(actorType),
		ActorID:    actorID,
		Action:     auditdomain.ActionCaseStatusChanged,
		TargetType: auditdomain.TargetTypeDebtCase,
		TargetID:   updated.ID.String(),
		Metadata: map[string]any{
			"status": string(req.Status),
			"reason": req.Reason,
		},
	})
	return updated, nil
}

// RecordActivity appends an activity row. A non-nil contact method updates
// last_contact_at unconditionally.
func (s *Service) RecordActivity(ctx context.Context, req domain.ActivityRequest) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.Find(ctx, tx, req.DebtCaseID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrCaseNotFound
		}

		activity := &domain.CaseActivity{
			ID:            s.genID.Generate(),
			OrgID:         row.OrgID,
			DebtCaseID:    row.ID,
			ActivityType:  req.ActivityType,
			ContactMethod: req.ContactMethod,
			Note:          req.Note,
			Metadata:      datatypes.JSONMap{},
			CreatedAt:     s.clock.Now(),
		}
		for key, value := range req.Metadata {
			activity.Metadata[key] = value
		}
		if err := s.repo.InsertActivity(ctx, tx, activity); err != nil {
			return err
		}

		if req.ContactMethod == nil {
			return nil
		}
		now := s.clock.Now()
		return s.repo.Update(ctx, tx, domain.CaseUpdate{ID: row.ID, LastContactAt: &now})
	})
}

func (s *Service) EscalatePriority(ctx context.Context, id snowflake.ID, priority domain.CasePriority) error {
	if !priority.IsValid() {
		return domain.ErrInvalidPriority
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.Find(ctx, tx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrCaseNotFound
		}
		return s.repo.Update(ctx, tx, domain.CaseUpdate{ID: id, Priority: &priority})
	})
}

func (s *Service) AssignAgent(ctx context.Context, caseID, agentID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.Find(ctx, tx, caseID)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrCaseNotFound
		}
		agent, err := s.repo.FindAgent(ctx, tx, row.OrgID, agentID)
		if err != nil {
			return err
		}
		if agent == nil {
			return domain.ErrAgentNotFound
		}
		return s.repo.Update(ctx, tx, domain.CaseUpdate{ID: caseID, AgentID: &agent.ID})
	})
}

func (s *Service) SetNextAction(ctx context.Context, id snowflake.ID, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.Find(ctx, tx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrCaseNotFound
		}
		return s.repo.Update(ctx, tx, domain.CaseUpdate{ID: id, NextActionAt: &at})
	})
}

// ResolveFromPlanCompletion moves a case to resolved when its payment plan
// settles in full.
func (s *Service) ResolveFromPlanCompletion(ctx context.Context, id snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.repo.Find(ctx, tx, id)
		if err != nil {
			return err
		}
		if row == nil {
			return domain.ErrCaseNotFound
		}
		if row.Status == domain.StatusResolved {
			return nil
		}
		if row.Status.IsTerminal() {
			return domain.ErrTerminalCase
		}

		from := row.Status
		status := domain.StatusResolved
		now := s.clock.Now()
		update := domain.CaseUpdate{ID: row.ID, Status: &status}
		if row.ResolvedAt == nil {
			update.ResolvedAt = &now
		}
		if err := s.repo.Update(ctx, tx, update); err != nil {
			return err
		}
		return s.publishStatusChange(ctx, tx, row, from, status, "payment_plan_completed")
	})
}

func (s *Service) publishStatusChange(ctx context.Context, tx *gorm.DB, row *domain.DebtCase, from, to domain.CaseStatus, trigger string) error {
	eventType := events.EventCaseStatusChanged
	switch to {
	case domain.StatusEscalated:
		eventType = events.EventCaseEscalated
	case domain.StatusResolved:
		eventType = events.EventCaseResolved
	}
	payload := events.CaseStatusPayload{
		DebtCaseID: row.ID.String(),
		FromStatus: string(from),
		ToStatus:   string(to),
		Trigger:    trigger,
	}
	err := s.outbox.PublishTx(ctx, tx, events.Event{
		OrgID:   row.OrgID,
		Type:    eventType,
		Payload: payload.ToMap(),
	})
	if err != nil {
		s.log.Warn("status change event publish failed",
			zap.String("debt_case_id", row.ID.String()),
			zap.Error(err),
		)
	}
	// A missed event must not roll back the transition itself.
	return nil
}
