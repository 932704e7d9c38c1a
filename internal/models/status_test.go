package models

import (
	"errors"
	"testing"
)

func TestStatusTransitions(t *testing.T) {
	allowed := []struct{ from, to PropertyStatus }{
		{StatusPendingReview, StatusApproved},
		{StatusPendingReview, StatusRejected},
		{StatusApproved, StatusListed},
		{StatusListed, StatusSoldOut},
	}
	for _, tc := range allowed {
		next, err := Transition(tc.from, tc.to)
		if err != nil {
			t.Fatalf("%s -> %s should be allowed: %v", tc.from, tc.to, err)
		}
		if next != tc.to {
			t.Fatalf("expected %s, got %s", tc.to, next)
		}
	}

	forbidden := []struct{ from, to PropertyStatus }{
		{StatusPendingReview, StatusListed},
		{StatusApproved, StatusApproved},
		{StatusApproved, StatusSoldOut},
		{StatusRejected, StatusApproved},
		{StatusSoldOut, StatusListed},
		{StatusListed, StatusApproved},
	}
	for _, tc := range forbidden {
		current, err := Transition(tc.from, tc.to)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s should be rejected, got %v", tc.from, tc.to, err)
		}
		if current != tc.from {
			t.Fatalf("failed transition must not change status, got %s", current)
		}
	}
}

func TestStatusValid(t *testing.T) {
	for _, status := range []PropertyStatus{StatusPendingReview, StatusApproved, StatusRejected, StatusListed, StatusSoldOut} {
		if !status.Valid() {
			t.Fatalf("%s should be valid", status)
		}
	}
	if PropertyStatus("archived").Valid() {
		t.Fatalf("unknown status should be invalid")
	}
}

func TestTerminalStatusesHaveNoExits(t *testing.T) {
	for _, status := range []PropertyStatus{StatusRejected, StatusSoldOut} {
		for _, next := range []PropertyStatus{StatusPendingReview, StatusApproved, StatusRejected, StatusListed, StatusSoldOut} {
			if status.CanTransitionTo(next) {
				t.Fatalf("%s should be terminal, allows %s", status, next)
			}
		}
	}
}
