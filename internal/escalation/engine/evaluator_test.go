package engine

import (
	"testing"

	casedomain "github.com/smallbiznis/collecta/internal/debtcase/domain"
	"github.com/smallbiznis/collecta/internal/escalation/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func TestMatchesEmptyConditionSet(t *testing.T) {
	features := domain.CaseFeatures{
		DaysOverdue:    5,
		TotalDebtCents: 100,
		Status:         casedomain.StatusNew,
	}
	if !Matches(domain.ConditionSet{}, features) {
		t.Fatal("empty condition set must match any case")
	}
}

func TestMatchesDaysOverdueRange(t *testing.T) {
	conditions := domain.ConditionSet{
		DaysOverdue: &domain.IntRange{Min: int64Ptr(30), Max: int64Ptr(60)},
	}

	cases := []struct {
		days int64
		want bool
	}{
		{29, false},
		{30, true},
		{45, true},
		{60, true},
		{61, false},
	}
	for _, tc := range cases {
		features := domain.CaseFeatures{DaysOverdue: tc.days, Status: casedomain.StatusNew}
		if got := Matches(conditions, features); got != tc.want {
			t.Fatalf("daysOverdue=%d: got %v, want %v", tc.days, got, tc.want)
		}
	}
}

func TestMatchesStatusAllowList(t *testing.T) {
	conditions := domain.ConditionSet{
		Status: []casedomain.CaseStatus{casedomain.StatusNew, casedomain.StatusContacted},
	}

	if !Matches(conditions, domain.CaseFeatures{Status: casedomain.StatusContacted}) {
		t.Fatal("contacted should be allowed")
	}
	if Matches(conditions, domain.CaseFeatures{Status: casedomain.StatusEscalated}) {
		t.Fatal("escalated should be rejected")
	}
}

func TestMatchesAllConditionsAnded(t *testing.T) {
	conditions := domain.ConditionSet{
		DaysOverdue: &domain.IntRange{Min: int64Ptr(30)},
		DebtAmount:  &domain.IntRange{Min: int64Ptr(10000)},
	}

	matching := domain.CaseFeatures{DaysOverdue: 35, TotalDebtCents: 15000, Status: casedomain.StatusNew}
	if !Matches(conditions, matching) {
		t.Fatal("both constraints satisfied, expected match")
	}

	partial := domain.CaseFeatures{DaysOverdue: 35, TotalDebtCents: 5000, Status: casedomain.StatusNew}
	if Matches(conditions, partial) {
		t.Fatal("one failing constraint must reject the case")
	}
}

func TestMatchesLastContactRequiresData(t *testing.T) {
	conditions := domain.ConditionSet{
		LastContactDaysAgo: &domain.IntRange{Min: int64Ptr(7)},
	}

	// A never-contacted case carries no last contact value and must not
	// satisfy the constraint.
	never := domain.CaseFeatures{Status: casedomain.StatusNew}
	if Matches(conditions, never) {
		t.Fatal("missing last contact must fail the constraint")
	}

	stale := domain.CaseFeatures{Status: casedomain.StatusNew, LastContactDaysAgo: int64Ptr(10)}
	if !Matches(conditions, stale) {
		t.Fatal("10 days since contact satisfies min 7")
	}

	recent := domain.CaseFeatures{Status: casedomain.StatusNew, LastContactDaysAgo: int64Ptr(3)}
	if Matches(conditions, recent) {
		t.Fatal("3 days since contact fails min 7")
	}
}

func TestMatchesPreviousAttemptsMax(t *testing.T) {
	conditions := domain.ConditionSet{
		PreviousAttempts: &domain.IntRange{Max: int64Ptr(2)},
	}

	if !Matches(conditions, domain.CaseFeatures{Status: casedomain.StatusNew, PreviousAttempts: 2}) {
		t.Fatal("2 attempts satisfies max 2")
	}
	if Matches(conditions, domain.CaseFeatures{Status: casedomain.StatusNew, PreviousAttempts: 3}) {
		t.Fatal("3 attempts exceeds max 2")
	}
}
