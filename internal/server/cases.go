package server

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/collecta/internal/audit/domain"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	obscontext "github.com/smallbiznis/collecta/internal/observability/context"
	voicedomain "github.com/smallbiznis/collecta/internal/voice/domain"
)

func caseIDFromPath(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid case id"))
		return 0, false
	}
	return id, true
}

// actorContext attaches the caller identity from headers so downstream
// services can attribute audit entries.
func actorContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	actorType := strings.TrimSpace(c.GetHeader("X-Actor-Type"))
	actorID := strings.TrimSpace(c.GetHeader("X-Actor-Id"))
	if actorType == "" && actorID != "" {
		actorType = string(auditdomain.ActorTypeOperator)
	}
	return obscontext.WithActor(ctx, actorType, actorID)
}

func (s *Server) GetCase(c *gin.Context) {
	id, ok := caseIDFromPath(c)
	if !ok {
		return
	}

	dcase, err := s.caseSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dcase)
}

// EvaluateCase runs every active rule against one case and returns the run
// summary.
func (s *Server) EvaluateCase(c *gin.Context) {
	id, ok := caseIDFromPath(c)
	if !ok {
		return
	}

	result, err := s.escalationSvc.EvaluateCase(actorContext(c), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type transitionCaseRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func (s *Server) TransitionCase(c *gin.Context) {
	id, ok := caseIDFromPath(c)
	if !ok {
		return
	}

	var req transitionCaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dcase, err := s.caseSvc.TransitionStatus(actorContext(c), casedomain.TransitionRequest{
		DebtCaseID: id,
		Status:     casedomain.CaseStatus(strings.TrimSpace(req.Status)),
		Reason:     strings.TrimSpace(req.Reason),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dcase)
}

type voiceOutcomeRequest struct {
	Outcome       string         `json:"outcome"`
	ExtractedData map[string]any `json:"extracted_data"`
}

// ApplyVoiceOutcome maps one analyzed call result onto the case state
// machine.
func (s *Server) ApplyVoiceOutcome(c *gin.Context) {
	id, ok := caseIDFromPath(c)
	if !ok {
		return
	}

	var req voiceOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	dcase, err := s.voiceSvc.ApplyOutcome(actorContext(c), voicedomain.OutcomeRequest{
		DebtCaseID:    id,
		Outcome:       voicedomain.Outcome(strings.TrimSpace(req.Outcome)),
		ExtractedData: req.ExtractedData,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dcase)
}

type scheduleCallRequest struct {
	VoiceAgentID string `json:"voice_agent_id"`
}

func (s *Server) ScheduleCall(c *gin.Context) {
	id, ok := caseIDFromPath(c)
	if !ok {
		return
	}

	var req scheduleCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	call, err := s.voiceSvc.ScheduleCall(actorContext(c), voicedomain.ScheduleRequest{
		DebtCaseID:   id,
		VoiceAgentID: strings.TrimSpace(req.VoiceAgentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, call)
}

type executionResponse struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"rule_id"`
	DebtCaseID   string    `json:"debt_case_id"`
	ActionsTaken any       `json:"actions_taken"`
	ExecutedAt   time.Time `json:"executed_at"`
}

func (s *Server) ListExecutions(c *gin.Context) {
	id, ok := caseIDFromPath(c)
	if !ok {
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			AbortWithError(c, newValidationError("limit", "invalid_limit", "limit must be an integer"))
			return
		}
		limit = parsed
	}

	executions, err := s.escalationSvc.ListExecutions(c.Request.Context(), id, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	items := make([]executionResponse, 0, len(executions))
	for _, execution := range executions {
		actions, err := execution.ParseActionsTaken()
		if err != nil {
			AbortWithError(c, err)
			return
		}
		items = append(items, executionResponse{
			ID:           execution.ID.String(),
			RuleID:       execution.RuleID.String(),
			DebtCaseID:   execution.DebtCaseID.String(),
			ActionsTaken: actions,
			ExecutedAt:   execution.ExecutedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"data": items})
}
