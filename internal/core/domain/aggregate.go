package domain

// MemberStatus is the status of one build set member: its terminal record status, or the
// status of its unfinished task.
type MemberStatus struct {
	ConfigurationID ConfigurationID
	Status          BuildStatus
}

// Outstanding reports whether the member has not terminated yet.
func (m MemberStatus) Outstanding() bool {
	return !m.Status.IsTerminal()
}

// AggregateStatus folds member statuses into one build set status. The first matching rule wins:
//
//  1. any CANCELLED member yields CANCELLED
//  2. any outstanding member yields BUILDING
//  3. any failed or rejected member yields FAILED
//  4. only reused members yield NO_REBUILD_REQUIRED; REJECTED_ALREADY_BUILT counts as reused
//  5. otherwise SUCCESS
//
// An empty set yields BUILDING. The result does not depend on member order.
func AggregateStatus(members []MemberStatus) BuildStatus {
	if len(members) == 0 {
		return StatusBuilding
	}

	var cancelled, outstanding, failed bool
	reusedOnly := true
	for _, m := range members {
		switch {
		case m.Status == StatusCancelled:
			cancelled = true
		case m.Outstanding():
			outstanding = true
		case m.Status.IsFailure():
			failed = true
		}
		if m.Status != StatusNoRebuildRequired && m.Status != StatusRejectedAlreadyBuilt {
			reusedOnly = false
		}
	}

	switch {
	case cancelled:
		return StatusCancelled
	case outstanding:
		return StatusBuilding
	case failed:
		return StatusFailed
	case reusedOnly:
		return StatusNoRebuildRequired
	default:
		return StatusSuccess
	}
}
