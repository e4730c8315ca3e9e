package domain

import "testing"

func TestPermissiveTransitionsAllowAnyValidPair(t *testing.T) {
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			if !CanTransition(from, to, false) {
				t.Errorf("permissive %s -> %s should be allowed", from, to)
			}
		}
	}
	if CanTransition(StatusMatched, Status("archived"), false) {
		t.Error("unknown target status must be rejected")
	}
	if CanTransition(Status("archived"), StatusMatched, false) {
		t.Error("unknown source status must be rejected")
	}
}

func TestStrictTransitions(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusMatched, StatusViewed, true},
		{StatusMatched, StatusContacted, true},
		{StatusMatched, StatusQualified, false},
		{StatusMatched, StatusConverted, false},
		{StatusViewed, StatusQualified, true},
		{StatusViewed, StatusConverted, false},
		{StatusContacted, StatusConverted, true},
		{StatusQualified, StatusConverted, true},
		{StatusQualified, StatusViewed, false},
		{StatusConverted, StatusRejected, false},
		{StatusRejected, StatusMatched, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to, true); got != tc.want {
			t.Errorf("strict %s -> %s = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestRejectionAllowedFromAnyNonTerminalState(t *testing.T) {
	for _, from := range []Status{StatusMatched, StatusViewed, StatusContacted, StatusQualified} {
		if !CanTransition(from, StatusRejected, true) {
			t.Errorf("strict %s -> rejected should be allowed", from)
		}
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range AllStatuses {
		wantTerminal := s == StatusConverted || s == StatusRejected
		if s.Terminal() != wantTerminal {
			t.Errorf("%s.Terminal() = %v, want %v", s, s.Terminal(), wantTerminal)
		}
	}
}
