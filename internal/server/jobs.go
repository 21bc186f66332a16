package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/collecta/internal/audit/domain"
)

// allowJob rate-limits manual job triggers per client address so a retry
// storm cannot stack sweeps.
func (s *Server) allowJob(c *gin.Context, job string) bool {
	if s.jobLimiter.Allow(job + ":" + c.ClientIP()) {
		return true
	}
	AbortWithError(c, ErrTooManyRequests)
	return false
}

func (s *Server) auditJobTrigger(c *gin.Context, job string, metadata map[string]any) {
	actorType := strings.TrimSpace(c.GetHeader("X-Actor-Type"))
	if actorType == "" {
		actorType = string(auditdomain.ActorTypeOperator)
	}
	s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		ActorType:  auditdomain.ActorType(actorType),
		ActorID:    strings.TrimSpace(c.GetHeader("X-Actor-Id")),
		Action:     auditdomain.ActionJobTriggered,
		TargetType: auditdomain.TargetTypeJob,
		TargetID:   job,
		Metadata:   metadata,
	})
}

// TriggerSweep runs one escalation sweep on demand.
func (s *Server) TriggerSweep(c *gin.Context) {
	if !s.allowJob(c, "sweep") {
		return
	}

	result, err := s.escalationSvc.RunSweep(actorContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditJobTrigger(c, "sweep", map[string]any{
		"cases_processed":  result.CasesProcessed,
		"rules_fired":      result.RulesFired,
		"actions_executed": result.ActionsExecuted,
	})
	c.JSON(http.StatusOK, result)
}

// TriggerDetectDefaults runs one payment plan default scan on demand.
func (s *Server) TriggerDetectDefaults(c *gin.Context) {
	if !s.allowJob(c, "detect-defaults") {
		return
	}

	result, err := s.planSvc.DetectDefaults(actorContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditJobTrigger(c, "detect-defaults", map[string]any{
		"plans_evaluated": result.PlansEvaluated,
		"plans_defaulted": result.PlansDefaulted,
	})
	c.JSON(http.StatusOK, result)
}

// TriggerOverdueInstallments flips past-due pending installments to overdue.
func (s *Server) TriggerOverdueInstallments(c *gin.Context) {
	if !s.allowJob(c, "overdue-installments") {
		return
	}

	marked, err := s.planSvc.MarkOverdue(actorContext(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditJobTrigger(c, "overdue-installments", map[string]any{
		"installments_marked": marked,
	})
	c.JSON(http.StatusOK, gin.H{"installments_marked": marked})
}
