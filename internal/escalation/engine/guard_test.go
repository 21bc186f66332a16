package engine

import (
	"testing"
	"time"

	"github.com/smallbiznis/collecta/internal/escalation/domain"
)

func intPtr(v int) *int { return &v }

func TestCheckGuardNoHistory(t *testing.T) {
	rule := domain.EscalationRule{CooldownHours: 24}
	decision := CheckGuard(rule, nil, time.Now().UTC())
	if !decision.Eligible {
		t.Fatalf("no history must be eligible, got reason %q", decision.Reason)
	}
}

func TestCheckGuardInsideCooldown(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rule := domain.EscalationRule{CooldownHours: 24}

	decision := CheckGuard(rule, []time.Time{now.Add(-1 * time.Hour)}, now)
	if decision.Eligible {
		t.Fatal("execution one hour ago must block a 24h cooldown")
	}
	if decision.Reason != GuardReasonInCooldown {
		t.Fatalf("reason = %q, want %q", decision.Reason, GuardReasonInCooldown)
	}
}

func TestCheckGuardCooldownBoundary(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rule := domain.EscalationRule{CooldownHours: 24}

	// Exactly 24h elapsed: window is strict, so the rule may fire again.
	decision := CheckGuard(rule, []time.Time{now.Add(-24 * time.Hour)}, now)
	if !decision.Eligible {
		t.Fatalf("exactly elapsed cooldown must be eligible, got %q", decision.Reason)
	}

	decision = CheckGuard(rule, []time.Time{now.Add(-24*time.Hour + time.Second)}, now)
	if decision.Eligible {
		t.Fatal("one second inside the window must block")
	}
}

func TestCheckGuardUsesLatestExecution(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rule := domain.EscalationRule{CooldownHours: 24}

	history := []time.Time{
		now.Add(-48 * time.Hour),
		now.Add(-2 * time.Hour),
		now.Add(-30 * time.Hour),
	}
	decision := CheckGuard(rule, history, now)
	if decision.Eligible {
		t.Fatal("most recent execution inside the window must block")
	}
}

func TestCheckGuardQuota(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rule := domain.EscalationRule{CooldownHours: 1, MaxExecutions: intPtr(2)}

	history := []time.Time{
		now.Add(-100 * time.Hour),
		now.Add(-200 * time.Hour),
	}
	decision := CheckGuard(rule, history, now)
	if decision.Eligible {
		t.Fatal("quota of 2 with 2 executions must block")
	}
	if decision.Reason != GuardReasonQuotaExhausted {
		t.Fatalf("reason = %q, want %q", decision.Reason, GuardReasonQuotaExhausted)
	}
}

func TestCheckGuardQuotaCheckedBeforeCooldown(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rule := domain.EscalationRule{CooldownHours: 24, MaxExecutions: intPtr(1)}

	// Recent execution both exhausts the quota and sits inside the cooldown;
	// the quota verdict wins because it is permanent.
	decision := CheckGuard(rule, []time.Time{now.Add(-1 * time.Hour)}, now)
	if decision.Reason != GuardReasonQuotaExhausted {
		t.Fatalf("reason = %q, want %q", decision.Reason, GuardReasonQuotaExhausted)
	}
}
