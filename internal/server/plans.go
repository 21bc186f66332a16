package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	plandomain "github.com/smallbiznis/collecta/internal/paymentplan/domain"
)

type createPlanRequest struct {
	DebtCaseID           string `json:"debt_case_id"`
	TotalAmountCents     int64  `json:"total_amount_cents"`
	DownPaymentCents     int64  `json:"down_payment_cents"`
	NumberOfInstallments int    `json:"number_of_installments"`
	FirstDueDate         string `json:"first_due_date"`
	IntervalDays         int    `json:"interval_days"`
}

func (s *Server) CreatePlan(c *gin.Context) {
	var req createPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	debtCaseID, err := snowflake.ParseString(strings.TrimSpace(req.DebtCaseID))
	if err != nil {
		AbortWithError(c, newValidationError("debt_case_id", "invalid_id", "invalid case id"))
		return
	}
	firstDueDate, err := time.Parse("2006-01-02", strings.TrimSpace(req.FirstDueDate))
	if err != nil {
		AbortWithError(c, newValidationError("first_due_date", "invalid_date", "first due date must be YYYY-MM-DD"))
		return
	}

	plan, err := s.planSvc.CreatePlan(actorContext(c), plandomain.CreatePlanRequest{
		DebtCaseID:           debtCaseID,
		TotalAmountCents:     req.TotalAmountCents,
		DownPaymentCents:     req.DownPaymentCents,
		NumberOfInstallments: req.NumberOfInstallments,
		FirstDueDate:         firstDueDate,
		IntervalDays:         req.IntervalDays,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

type applyPaymentRequest struct {
	AmountCents int64 `json:"amount_cents"`
}

func (s *Server) ApplyPayment(c *gin.Context) {
	installmentID, err := snowflake.ParseString(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid installment id"))
		return
	}

	var req applyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.planSvc.ApplyPayment(actorContext(c), installmentID, req.AmountCents); err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
