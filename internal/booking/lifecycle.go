package booking

// transitions is the authoritative lifecycle table. Anything absent here
// is forbidden; rejected, cancelled and completed have no outgoing edges.
//
//	pending   -> approved | rejected | cancelled
//	approved  -> checked_in | cancelled | completed
//	checked_in -> completed
var transitions = map[Status][]Status{
	StatusPending:   {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved:  {StatusCheckedIn, StatusCancelled, StatusCompleted},
	StatusCheckedIn: {StatusCompleted},
}

// CanTransition reports whether the lifecycle allows moving from one
// status to another. Time-based preconditions (check-in window, cancel
// deadline) are enforced by the service on top of this table.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leads out of the status.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// IsValid reports whether s is one of the known statuses.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusCheckedIn, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}
