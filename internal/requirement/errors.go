package requirement

import (
	"fmt"

	"pathfinder/internal/domain"
)

// IllegalTransitionError reports a requested status change that is not in the
// transition table. It carries both statuses so callers can surface a
// specific, actionable message.
type IllegalTransitionError struct {
	From domain.RequirementStatus
	To   domain.RequirementStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal transition from %q to %q", e.From, e.To)
}
