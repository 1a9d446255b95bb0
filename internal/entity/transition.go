package entity

import "fmt"

// statusTransitions lists the allowed next statuses per current status.
// Soft delete is not a destination here: it is an overlay flag available from
// every non-deleted lead, and restore is not a transition at all.
var statusTransitions = map[LeadStatus][]LeadStatus{
	StatusNew:           {StatusAssigned},
	StatusAssigned:      {StatusCalled},
	StatusCalled:        {StatusInterested, StatusNotInterested},
	StatusInterested:    {StatusClosed, StatusNotInterested},
	StatusNotInterested: {},
	StatusClosed:        {},
	StatusDeleted:       {},
}

// AllowedTransitions returns a copy of the destinations reachable from s.
func AllowedTransitions(s LeadStatus) []LeadStatus {
	return append([]LeadStatus{}, statusTransitions[s]...)
}

func IsValidTransition(current, requested LeadStatus) bool {
	for _, next := range statusTransitions[current] {
		if next == requested {
			return true
		}
	}
	return false
}

// AttemptTransition is the single gate every status change goes through.
func AttemptTransition(current, requested LeadStatus) error {
	if !IsValidTransition(current, requested) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, requested)
	}
	return nil
}
