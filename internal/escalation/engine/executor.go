package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	campaigndomain "github.com/smallbiznis/collecta/internal/campaign/domain"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/escalation/domain"
	notificationdomain "github.com/smallbiznis/collecta/internal/notification/domain"
	"github.com/smallbiznis/collecta/internal/observability/metrics"
	voicedomain "github.com/smallbiznis/collecta/internal/voice/domain"
	"go.uber.org/zap"
)

// Executor dispatches one typed action at a time. A failed action never
// blocks its siblings; every attempt produces exactly one ActionResult.
type Executor struct {
	log      *zap.Logger
	caseSvc  casedomain.Service
	resolver casedomain.ContactResolver
	campaign campaigndomain.Store
	voiceSvc voicedomain.Service
	notifier notificationdomain.Notifier
	timeout  time.Duration
}

func NewExecutor(
	log *zap.Logger,
	caseSvc casedomain.Service,
	resolver casedomain.ContactResolver,
	campaign campaigndomain.Store,
	voiceSvc voicedomain.Service,
	notifier notificationdomain.Notifier,
	timeout time.Duration,
) *Executor {
	return &Executor{
		log:      log.Named("escalation.executor"),
		caseSvc:  caseSvc,
		resolver: resolver,
		campaign: campaign,
		voiceSvc: voiceSvc,
		notifier: notifier,
		timeout:  timeout,
	}
}

// ExecuteAll runs every action of a rule in order, isolating failures
// per action.
func (e *Executor) ExecuteAll(ctx context.Context, dcase *casedomain.DebtCase, specs []domain.ActionSpec) []domain.ActionResult {
	results := make([]domain.ActionResult, 0, len(specs))
	for _, spec := range specs {
		result := e.Execute(ctx, dcase, spec)
		metrics.Sweep().IncActionExecuted(result.Success)
		results = append(results, result)
	}
	return results
}

// Execute runs one action. The switch covers the whole catalog; an unknown
// type is an invalid action, never a silent fallthrough.
func (e *Executor) Execute(ctx context.Context, dcase *casedomain.DebtCase, spec domain.ActionSpec) domain.ActionResult {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var (
		result string
		err    error
	)
	switch spec.Type {
	case domain.ActionEscalatePriority:
		result, err = e.escalatePriority(ctx, dcase, spec.Params)
	case domain.ActionAssignAgent:
		result, err = e.assignAgent(ctx, dcase, spec.Params)
	case domain.ActionAddToCampaign:
		result, err = e.addToCampaign(ctx, dcase, spec.Params)
	case domain.ActionVoiceCall:
		result, err = e.voiceCall(ctx, dcase, spec.Params)
	case domain.ActionSendEmail:
		result, err = e.notify(ctx, dcase, spec.Params, "email")
	case domain.ActionSendSMS:
		result, err = e.notify(ctx, dcase, spec.Params, "sms")
	case domain.ActionCreateDebtCase:
		// A rule firing always runs against an existing case.
		err = domain.ErrActionNotOnCase
	default:
		err = fmt.Errorf("%w: %s", domain.ErrInvalidAction, spec.Type)
	}

	if err != nil {
		e.log.Warn("action failed",
			zap.String("debt_case_id", dcase.ID.String()),
			zap.String("action", string(spec.Type)),
			zap.Error(err),
		)
		return domain.ActionResult{Type: spec.Type, Error: err.Error()}
	}
	return domain.ActionResult{Type: spec.Type, Success: true, Result: result}
}

func (e *Executor) escalatePriority(ctx context.Context, dcase *casedomain.DebtCase, params domain.ActionParams) (string, error) {
	priority := casedomain.CasePriority(params.Priority)
	if err := e.caseSvc.EscalatePriority(ctx, dcase.ID, priority); err != nil {
		return "", err
	}
	dcase.Priority = priority
	return "priority set to " + params.Priority, nil
}

func (e *Executor) assignAgent(ctx context.Context, dcase *casedomain.DebtCase, params domain.ActionParams) (string, error) {
	agentID, err := snowflake.ParseString(params.AgentID)
	if err != nil {
		return "", casedomain.ErrAgentNotFound
	}
	if err := e.caseSvc.AssignAgent(ctx, dcase.ID, agentID); err != nil {
		return "", err
	}
	return "agent " + params.AgentID + " assigned", nil
}

func (e *Executor) addToCampaign(ctx context.Context, dcase *casedomain.DebtCase, params domain.ActionParams) (string, error) {
	contact, err := e.resolver.ResolveContact(ctx, dcase.ID)
	if err != nil {
		return "", err
	}
	if err := e.campaign.AddContact(ctx, dcase.OrgID, params.CampaignID, dcase.ID, contact.CustomerID); err != nil {
		return "", err
	}
	return "added to campaign " + params.CampaignID, nil
}

func (e *Executor) voiceCall(ctx context.Context, dcase *casedomain.DebtCase, params domain.ActionParams) (string, error) {
	call, err := e.voiceSvc.ScheduleCall(ctx, voicedomain.ScheduleRequest{
		DebtCaseID:   dcase.ID,
		VoiceAgentID: params.VoiceAgentID,
	})
	if err != nil {
		return "", err
	}
	return "call " + call.ID.String() + " scheduled", nil
}

// notify delegates to the notification collaborator. Fire-and-forget: a
// provider error is logged but the action still reports success.
func (e *Executor) notify(ctx context.Context, dcase *casedomain.DebtCase, params domain.ActionParams, channel string) (string, error) {
	recipient := ""
	if contact, err := e.resolver.ResolveContact(ctx, dcase.ID); err == nil {
		if channel == "sms" {
			recipient = contact.Phone
		} else {
			recipient = contact.Email
		}
	}
	if err := e.notifier.Send(ctx, notificationdomain.Message{
		TemplateID: params.TemplateID,
		Recipient:  recipient,
		Variables: map[string]any{
			"debt_case_id": dcase.ID.String(),
			"total_debt":   dcase.TotalDebtCents,
			"currency":     dcase.Currency,
		},
	}); err != nil {
		e.log.Warn("notification send failed",
			zap.String("debt_case_id", dcase.ID.String()),
			zap.String("template_id", params.TemplateID),
			zap.Error(err),
		)
	}
	return channel + " template " + params.TemplateID + " queued", nil
}
