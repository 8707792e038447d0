package requirement

import "pathfinder/internal/domain"

// transitions is the static adjacency table for the requirement lifecycle:
// status -> set of legal successor statuses. Statuses with no entry are
// absorbing and reject every outgoing transition. A same-state transition is
// legal only if explicitly listed here; none is, and no code path
// special-cases it.
var transitions = map[domain.RequirementStatus][]domain.RequirementStatus{
	domain.StatusNotStarted: {
		domain.StatusInProgress,
		domain.StatusCompletedPrior,
		domain.StatusExcluded,
		domain.StatusOffered,
	},
	domain.StatusInProgress: {
		domain.StatusTracking,
		domain.StatusBlocked,
		domain.StatusNeedsApproval,
	},
	domain.StatusTracking: {
		domain.StatusInProgress,
		domain.StatusBlocked,
		domain.StatusNeedsApproval,
	},
	domain.StatusBlocked: {
		domain.StatusInProgress,
		domain.StatusTracking,
	},
	domain.StatusNeedsApproval: {
		domain.StatusInProgress,
		domain.StatusReadyForReview,
	},
	domain.StatusReadyForReview: {
		domain.StatusNeedsApproval,
		domain.StatusSubmitted,
	},
	domain.StatusSubmitted: {
		domain.StatusSignedOff,
		domain.StatusNeedsRevision,
	},
	domain.StatusNeedsRevision: {
		domain.StatusInProgress,
		domain.StatusSubmitted,
	},
	// signed_off, completed_prior, excluded, offered: absorbing.
}

// successors is the lookup form of the table, built once at process start.
var successors = func() map[domain.RequirementStatus]map[domain.RequirementStatus]struct{} {
	m := make(map[domain.RequirementStatus]map[domain.RequirementStatus]struct{}, len(transitions))
	for from, tos := range transitions {
		set := make(map[domain.RequirementStatus]struct{}, len(tos))
		for _, to := range tos {
			set[to] = struct{}{}
		}
		m[from] = set
	}
	return m
}()

// IsValidTransition reports whether from -> to traverses an edge of the
// static transition graph. Pure and side-effect-free.
func IsValidTransition(from, to domain.RequirementStatus) bool {
	set, ok := successors[from]
	if !ok {
		return false
	}
	_, ok = set[to]
	return ok
}
