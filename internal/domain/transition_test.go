package domain

import "testing"

func TestTransitions_HappyPath(t *testing.T) {
	path := []RideStatus{
		RideStatusRequested,
		RideStatusAccepted,
		RideStatusArriving,
		RideStatusStarted,
		RideStatusInProgress,
		RideStatusCompleted,
	}

	for i := 0; i < len(path)-1; i++ {
		next, err := NextStatus(path[i], path[i+1])
		if err != nil {
			t.Fatalf("transition %s -> %s: unexpected error %v", path[i], path[i+1], err)
		}
		if next != path[i+1] {
			t.Errorf("transition %s: expected %s, got %s", path[i], path[i+1], next)
		}
	}
}

func TestTransitions_RejectsSkips(t *testing.T) {
	testCases := []struct {
		from RideStatus
		to   RideStatus
	}{
		{RideStatusRequested, RideStatusStarted},
		{RideStatusRequested, RideStatusCompleted},
		{RideStatusAccepted, RideStatusInProgress},
		{RideStatusArriving, RideStatusCompleted},
		{RideStatusCompleted, RideStatusInProgress},
		{RideStatusInProgress, RideStatusRequested},
	}

	for _, tc := range testCases {
		if _, err := NextStatus(tc.from, tc.to); err != ErrInvalidTransition {
			t.Errorf("transition %s -> %s: expected ErrInvalidTransition, got %v", tc.from, tc.to, err)
		}
	}
}

func TestTransitions_CancelFromAnyNonTerminal(t *testing.T) {
	for _, from := range []RideStatus{
		RideStatusRequested,
		RideStatusAccepted,
		RideStatusArriving,
		RideStatusStarted,
		RideStatusInProgress,
	} {
		if !CanTransition(from, RideStatusCancelled) {
			t.Errorf("expected %s -> cancelled to be allowed", from)
		}
	}
}

func TestTransitions_TerminalStatesAbsorb(t *testing.T) {
	for _, from := range []RideStatus{RideStatusCompleted, RideStatusCancelled} {
		if CanTransition(from, RideStatusCancelled) {
			t.Errorf("expected %s -> cancelled to be rejected", from)
		}
		if CanTransition(from, RideStatusAccepted) {
			t.Errorf("expected %s -> accepted to be rejected", from)
		}
	}
}

func TestDemandStatuses_WaitingPlusActive(t *testing.T) {
	demand := make(map[RideStatus]bool)
	for _, s := range DemandStatuses() {
		demand[s] = true
	}

	if !demand[RideStatusRequested] {
		t.Error("expected requested to count as demand")
	}
	for _, s := range []RideStatus{
		RideStatusRequested,
		RideStatusAccepted,
		RideStatusArriving,
		RideStatusStarted,
		RideStatusInProgress,
		RideStatusCompleted,
		RideStatusCancelled,
	} {
		switch {
		case s.IsActive() && !demand[s]:
			t.Errorf("expected active status %s to count as demand", s)
		case s.IsTerminal() && demand[s]:
			t.Errorf("expected terminal status %s not to count as demand", s)
		}
	}
}

func TestParseStatus_AliasesPickedUp(t *testing.T) {
	status, ok := ParseStatus("picked_up")
	if !ok {
		t.Fatal("expected picked_up to parse")
	}
	if status != RideStatusStarted {
		t.Errorf("expected started, got %s", status)
	}
}

func TestParseStatus_RejectsUnknownLabels(t *testing.T) {
	if _, ok := ParseStatus("teleported"); ok {
		t.Error("expected unknown label to be rejected")
	}
}
