package models

import "errors"

// PropertyStatus is the property lifecycle state. All transitions go through
// Transition so illegal moves are rejected in one place instead of being
// re-checked ad hoc at every call site.
type PropertyStatus string

const (
	StatusPendingReview PropertyStatus = "pending_review"
	StatusApproved      PropertyStatus = "approved"
	StatusRejected      PropertyStatus = "rejected"
	StatusListed        PropertyStatus = "listed"
	StatusSoldOut       PropertyStatus = "sold_out"
)

var ErrInvalidTransition = errors.New("illegal property status transition")

var statusTransitions = map[PropertyStatus][]PropertyStatus{
	StatusPendingReview: {StatusApproved, StatusRejected},
	StatusApproved:      {StatusListed},
	StatusListed:        {StatusSoldOut},
	StatusRejected:      {},
	StatusSoldOut:       {},
}

func (s PropertyStatus) Valid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s PropertyStatus) CanTransitionTo(next PropertyStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Transition validates a status move and returns the next status unchanged,
// or ErrInvalidTransition.
func Transition(current, next PropertyStatus) (PropertyStatus, error) {
	if !current.CanTransitionTo(next) {
		return current, ErrInvalidTransition
	}
	return next, nil
}
