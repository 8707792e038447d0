package domain

import (
	"fmt"
	"time"
)

// RequirementStatus is the lifecycle state of one merit-badge requirement.
// Invariant: the value is always one of the enumerated statuses, and every
// non-administrative change traverses an edge of the static transition graph
// owned by internal/requirement.
//
// Usage: construct via ParseRequirementStatus at trust boundaries to enforce
// the allowlist; direct casting bypasses validation.
type RequirementStatus string

const (
	StatusNotStarted     RequirementStatus = "not_started"
	StatusInProgress     RequirementStatus = "in_progress"
	StatusTracking       RequirementStatus = "tracking"
	StatusBlocked        RequirementStatus = "blocked"
	StatusNeedsApproval  RequirementStatus = "needs_approval"
	StatusReadyForReview RequirementStatus = "ready_for_review"
	StatusSubmitted      RequirementStatus = "submitted"
	StatusSignedOff      RequirementStatus = "signed_off"
	StatusNeedsRevision  RequirementStatus = "needs_revision"
	StatusCompletedPrior RequirementStatus = "completed_prior"
	StatusExcluded       RequirementStatus = "excluded"
	StatusOffered        RequirementStatus = "offered"
)

// validRequirementStatuses is the single source of truth for valid statuses.
var validRequirementStatuses = map[RequirementStatus]bool{
	StatusNotStarted:     true,
	StatusInProgress:     true,
	StatusTracking:       true,
	StatusBlocked:        true,
	StatusNeedsApproval:  true,
	StatusReadyForReview: true,
	StatusSubmitted:      true,
	StatusSignedOff:      true,
	StatusNeedsRevision:  true,
	StatusCompletedPrior: true,
	StatusExcluded:       true,
	StatusOffered:        true,
}

// ParseRequirementStatus constructs a RequirementStatus from external input.
// Returns an error when the value is empty or not in the enumerated set.
func ParseRequirementStatus(s string) (RequirementStatus, error) {
	if s == "" {
		return "", fmt.Errorf("requirement status cannot be empty")
	}
	status := RequirementStatus(s)
	if !status.IsValid() {
		return "", fmt.Errorf("unknown requirement status %q", s)
	}
	return status, nil
}

// IsValid reports whether the status is one of the enumerated values.
func (s RequirementStatus) IsValid() bool {
	return validRequirementStatuses[s]
}

func (s RequirementStatus) String() string {
	return string(s)
}

// Requirement is one trackable merit-badge sub-task. Exactly one authoritative
// instance exists per (scout, requirement ID) pair.
type Requirement struct {
	ScoutEmail    string
	RequirementID string
	Status        RequirementStatus
	Notes         []string
	UpdatedAt     time.Time
}
