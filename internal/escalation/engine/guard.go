package engine

import (
	"time"

	"github.com/smallbiznis/collecta/internal/escalation/domain"
)

// Guard reasons a rule is held back from firing.
const (
	GuardReasonInCooldown     = "in_cooldown"
	GuardReasonQuotaExhausted = "quota_exhausted"
)

// GuardDecision is the throttling verdict for one (rule, case) pair.
type GuardDecision struct {
	Eligible bool
	Reason   string
}

// CheckGuard decides eligibility from the durable execution history. The most
// recent execution blocks firing while strictly inside the cooldown window;
// a set quota blocks once total executions reach it. Pure read-then-decide:
// callers must pair it with the atomic execution claim.
func CheckGuard(rule domain.EscalationRule, history []time.Time, now time.Time) GuardDecision {
	if rule.MaxExecutions != nil && len(history) >= *rule.MaxExecutions {
		return GuardDecision{Reason: GuardReasonQuotaExhausted}
	}
	if len(history) > 0 {
		cooldown := time.Duration(rule.CooldownHours) * time.Hour
		latest := history[0]
		for _, executedAt := range history[1:] {
			if executedAt.After(latest) {
				latest = executedAt
			}
		}
		if now.Sub(latest) < cooldown {
			return GuardDecision{Reason: GuardReasonInCooldown}
		}
	}
	return GuardDecision{Eligible: true}
}
