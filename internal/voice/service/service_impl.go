package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/collecta/internal/clock"
	"github.com/smallbiznis/collecta/internal/config"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/events"
	"github.com/smallbiznis/collecta/internal/observability/logger"
	"github.com/smallbiznis/collecta/internal/voice/adapters"
	"github.com/smallbiznis/collecta/internal/voice/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var promisedDateLayouts = []string{time.RFC3339, "2006-01-02"}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Cfg      config.Config
	CaseSvc  casedomain.Service
	Resolver casedomain.ContactResolver
	Registry *adapters.Registry
	Outbox   *events.Outbox
}

// Service schedules calls through the configured provider and maps call
// outcomes onto debt case state.
type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	caseSvc  casedomain.Service
	resolver casedomain.ContactResolver
	provider domain.Provider
	outbox   *events.Outbox
	timeout  time.Duration
}

func NewService(p Params) (domain.Service, error) {
	provider, err := p.Registry.New(p.Cfg.VoiceProvider)
	if err != nil {
		return nil, err
	}
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("voice.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		caseSvc:  p.CaseSvc,
		resolver: p.Resolver,
		provider: provider,
		outbox:   p.Outbox,
		timeout:  p.Cfg.Worker.ActionTimeout,
	}, nil
}

// ScheduleCall creates an immediate pending call to the case's customer phone
// and hands it to the provider. Provider hiccups leave the row pending for the
// next operator review; only a missing phone fails the request.
func (s *Service) ScheduleCall(ctx context.Context, req domain.ScheduleRequest) (*domain.VoiceCall, error) {
	dcase, err := s.caseSvc.Get(ctx, req.DebtCaseID)
	if err != nil {
		return nil, err
	}
	contact, err := s.resolver.ResolveContact(ctx, dcase.ID)
	if err != nil {
		return nil, err
	}
	if contact.Phone == "" {
		return nil, casedomain.ErrNoPhoneOnFile
	}

	call := &domain.VoiceCall{
		ID:            s.genID.Generate(),
		OrgID:         dcase.OrgID,
		DebtCaseID:    dcase.ID,
		VoiceAgentID:  req.VoiceAgentID,
		PhoneNumber:   contact.Phone,
		Status:        domain.CallStatusPending,
		ExtractedData: datatypes.JSONMap{},
		ScheduledAt:   s.clock.Now(),
		CreatedAt:     s.clock.Now(),
	}
	if err := s.db.WithContext(ctx).Create(call).Error; err != nil {
		return nil, err
	}

	// The provider call happens outside any transaction or case lock.
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	handle, err := s.provider.InitiateCall(callCtx, req.VoiceAgentID, contact.Phone, domain.CallContext{
		DebtCaseID: dcase.ID.String(),
		Currency:   dcase.Currency,
		DebtCents:  dcase.TotalDebtCents,
	})
	if err != nil {
		s.log.Warn("voice provider initiate failed",
			zap.String("debt_case_id", dcase.ID.String()),
			zap.String("phone", logger.MaskPhone(contact.Phone)),
			zap.Error(err),
		)
		return call, nil
	}

	if err := s.db.WithContext(ctx).Exec(
		`UPDATE voice_calls SET call_handle = ?, status = ? WHERE id = ?`,
		handle,
		domain.CallStatusRinging,
		call.ID,
	).Error; err != nil {
		return nil, err
	}
	call.CallHandle = &handle
	call.Status = domain.CallStatusRinging
	return call, nil
}

// ApplyOutcome translates an analyzed call result into case state changes.
func (s *Service) ApplyOutcome(ctx context.Context, req domain.OutcomeRequest) (*casedomain.DebtCase, error) {
	if !req.Outcome.IsValid() {
		return nil, domain.ErrInvalidOutcome
	}
	dcase, err := s.caseSvc.Get(ctx, req.DebtCaseID)
	if err != nil {
		return nil, err
	}

	switch req.Outcome {
	case domain.OutcomePromiseToPay:
		dcase, err = s.transition(ctx, dcase, casedomain.StatusContacted, req.Outcome)
		if err != nil {
			return nil, err
		}
		if promised, ok := s.extractDate(req.ExtractedData, domain.ExtractedKeyPromisedDate); ok {
			if err := s.caseSvc.SetNextAction(ctx, dcase.ID, promised); err != nil {
				return nil, err
			}
			dcase.NextActionAt = &promised
		}

	case domain.OutcomePaymentPlanAgreed:
		dcase, err = s.transition(ctx, dcase, casedomain.StatusPaymentPlan, req.Outcome)
		if err != nil {
			return nil, err
		}

	case domain.OutcomeDispute:
		dcase, err = s.transition(ctx, dcase, casedomain.StatusEscalated, req.Outcome)
		if err != nil {
			return nil, err
		}

	case domain.OutcomeEscalate:
		dcase, err = s.transition(ctx, dcase, casedomain.StatusEscalated, req.Outcome)
		if err != nil {
			return nil, err
		}
		if err := s.caseSvc.EscalatePriority(ctx, dcase.ID, casedomain.PriorityHigh); err != nil {
			return nil, err
		}
		dcase.Priority = casedomain.PriorityHigh

	case domain.OutcomeCallbackRequested:
		if callback, ok := s.extractDate(req.ExtractedData, domain.ExtractedKeyCallbackDate); ok {
			if err := s.caseSvc.SetNextAction(ctx, dcase.ID, callback); err != nil {
				return nil, err
			}
			dcase.NextActionAt = &callback
		}

	default:
		// no_answer, voicemail, wrong_number, refused, completed: no status
		// change.
	}

	if err := s.recordOutcomeActivity(ctx, dcase, req); err != nil {
		return nil, err
	}

	if err := s.outbox.Publish(ctx, events.Event{
		OrgID: dcase.OrgID,
		Type:  events.EventCallOutcomeApplied,
		Payload: map[string]any{
			"debt_case_id": dcase.ID.String(),
			"outcome":      string(req.Outcome),
		},
	}); err != nil {
		s.log.Warn("outcome event publish failed", zap.Error(err))
	}
	return dcase, nil
}

func (s *Service) transition(ctx context.Context, dcase *casedomain.DebtCase, to casedomain.CaseStatus, outcome domain.Outcome) (*casedomain.DebtCase, error) {
	if dcase.Status == to {
		return dcase, nil
	}
	return s.caseSvc.TransitionStatus(ctx, casedomain.TransitionRequest{
		DebtCaseID: dcase.ID,
		Status:     to,
		Reason:     "voice_outcome:" + string(outcome),
	})
}

// recordOutcomeActivity logs the call result. Outcomes where the customer was
// actually reached carry a phone contact method and therefore bump
// last_contact_at.
func (s *Service) recordOutcomeActivity(ctx context.Context, dcase *casedomain.DebtCase, req domain.OutcomeRequest) error {
	activity := casedomain.ActivityRequest{
		DebtCaseID:   dcase.ID,
		ActivityType: "voice_call_outcome",
		Metadata: map[string]any{
			"outcome": string(req.Outcome),
		},
	}
	switch req.Outcome {
	case domain.OutcomeNoAnswer, domain.OutcomeVoicemail, domain.OutcomeWrongNumber:
		// Not an actual contact with the debtor.
	default:
		method := "phone"
		activity.ContactMethod = &method
	}
	return s.caseSvc.RecordActivity(ctx, activity)
}

func (s *Service) extractDate(data map[string]any, key string) (time.Time, bool) {
	if data == nil {
		return time.Time{}, false
	}
	raw, ok := data[key].(string)
	if !ok || raw == "" {
		return time.Time{}, false
	}
	for _, layout := range promisedDateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), true
		}
	}
	s.log.Warn("unparseable extracted date", zap.String("key", key), zap.String("value", raw))
	return time.Time{}, false
}
