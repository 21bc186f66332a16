// Package engine implements the rule engine: condition evaluation, cooldown
// and quota guarding, action execution and the sweep orchestrator.
package engine

import (
	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/escalation/domain"
)

// Matches reports whether a case's feature snapshot satisfies a condition set.
// All present constraints are ANDed; absent constraints hold vacuously. Pure
// and deterministic.
func Matches(conditions domain.ConditionSet, features domain.CaseFeatures) bool {
	if !conditions.DaysOverdue.Contains(features.DaysOverdue) {
		return false
	}
	if !conditions.DebtAmount.Contains(features.TotalDebtCents) {
		return false
	}
	if len(conditions.Status) > 0 && !statusAllowed(conditions.Status, features.Status) {
		return false
	}
	if !conditions.PreviousAttempts.Contains(features.PreviousAttempts) {
		return false
	}
	if conditions.LastContactDaysAgo != nil {
		// A never-contacted case fails the constraint: absence of data does
		// not satisfy a range check.
		if features.LastContactDaysAgo == nil {
			return false
		}
		if !conditions.LastContactDaysAgo.Contains(*features.LastContactDaysAgo) {
			return false
		}
	}
	return true
}

func statusAllowed(allowed []casedomain.CaseStatus, status casedomain.CaseStatus) bool {
	for _, candidate := range allowed {
		if candidate == status {
			return true
		}
	}
	return false
}
