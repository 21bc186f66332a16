package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	plandomain "github.com/smallbiznis/collecta/internal/paymentplan/domain"
	voicedomain "github.com/smallbiznis/collecta/internal/voice/domain"
)

func performAbort(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	AbortWithError(c, err)
	return recorder
}

func TestAbortWithErrorMapping(t *testing.T) {
	cases := []struct {
		err        error
		wantStatus int
	}{
		{casedomain.ErrCaseNotFound, http.StatusNotFound},
		{plandomain.ErrInstallmentNotFound, http.StatusNotFound},
		{casedomain.ErrInvalidStatus, http.StatusBadRequest},
		{voicedomain.ErrInvalidOutcome, http.StatusBadRequest},
		{casedomain.ErrTerminalCase, http.StatusConflict},
		{casedomain.ErrNoPhoneOnFile, http.StatusConflict},
		{plandomain.ErrPlanNotActive, http.StatusConflict},
		{ErrNotFound, http.StatusNotFound},
		{ErrTooManyRequests, http.StatusTooManyRequests},
		{errors.New("connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			recorder := performAbort(t, tc.err)
			if recorder.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", recorder.Code, tc.wantStatus)
			}
		})
	}
}

func TestAbortWithErrorWrappedDomainError(t *testing.T) {
	wrapped := fmt.Errorf("apply payment: %w", plandomain.ErrPlanNotActive)
	recorder := performAbort(t, wrapped)
	if recorder.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", recorder.Code)
	}
}

func TestAbortWithErrorHidesInternals(t *testing.T) {
	recorder := performAbort(t, errors.New("pq: relation debt_cases does not exist"))
	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", recorder.Code)
	}
	if strings.Contains(recorder.Body.String(), "debt_cases") {
		t.Fatalf("response leaks internal error text: %s", recorder.Body.String())
	}
}

func TestRateLimiterWindow(t *testing.T) {
	limiter := newRateLimiter(2, time.Minute)

	if !limiter.Allow("10.0.0.1") || !limiter.Allow("10.0.0.1") {
		t.Fatal("first two requests must pass")
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatal("third request inside the window must be rejected")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatal("other callers are counted separately")
	}
	if limiter.Allow("") {
		t.Fatal("blank keys are never allowed")
	}
}
