package requirement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pathfinder/internal/domain"
	"pathfinder/internal/storage"
)

// Service applies requirement status changes. The normal path enforces the
// transition table; the administrative override bypasses it through a
// separately named, always-audited operation. Authorization is the caller's
// contract: every mutating tool call consults the policy engine before
// reaching this service.
type Service struct {
	requirements storage.RequirementStore
	audit        storage.AuditStore
	logger       *slog.Logger
	now          func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(requirements storage.RequirementStore, audit storage.AuditStore, opts ...Option) (*Service, error) {
	if requirements == nil {
		return nil, fmt.Errorf("requirement store is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit store is required")
	}

	svc := &Service{
		requirements: requirements,
		audit:        audit,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// UpdateStatus moves a requirement along an edge of the transition graph.
// An illegal transition returns IllegalTransitionError with both statuses
// and leaves the record untouched.
func (s *Service) UpdateStatus(ctx context.Context, scoutEmail, requirementID string, to domain.RequirementStatus) (domain.Requirement, error) {
	if !to.IsValid() {
		return domain.Requirement{}, fmt.Errorf("unknown requirement status %q", to)
	}

	req, err := s.requirements.FindRequirement(ctx, scoutEmail, requirementID)
	if err != nil {
		return domain.Requirement{}, fmt.Errorf("find requirement %s/%s: %w", scoutEmail, requirementID, err)
	}

	if !IsValidTransition(req.Status, to) {
		return domain.Requirement{}, &IllegalTransitionError{From: req.Status, To: to}
	}

	req.Status = to
	req.UpdatedAt = s.now()
	if err := s.requirements.SaveRequirement(ctx, req); err != nil {
		return domain.Requirement{}, fmt.Errorf("save requirement %s/%s: %w", scoutEmail, requirementID, err)
	}
	return req, nil
}

// OverrideStatus is the administrative escape hatch. It bypasses the
// transition table entirely, validating only that the requirement exists and
// that a human-readable reason was given. Every use appends the prior and new
// status to the requirement's notes and writes a status_overridden audit
// entry.
func (s *Service) OverrideStatus(ctx context.Context, scoutEmail, requirementID string, to domain.RequirementStatus, reason string) (domain.Requirement, error) {
	if !to.IsValid() {
		return domain.Requirement{}, fmt.Errorf("unknown requirement status %q", to)
	}
	if reason == "" {
		return domain.Requirement{}, fmt.Errorf("override reason is required")
	}

	req, err := s.requirements.FindRequirement(ctx, scoutEmail, requirementID)
	if err != nil {
		return domain.Requirement{}, fmt.Errorf("find requirement %s/%s: %w", scoutEmail, requirementID, err)
	}

	prior := req.Status
	now := s.now()
	req.Status = to
	req.Notes = append(req.Notes, fmt.Sprintf("status override: %s -> %s: %s", prior, to, reason))
	req.UpdatedAt = now
	if err := s.requirements.SaveRequirement(ctx, req); err != nil {
		return domain.Requirement{}, fmt.Errorf("save requirement %s/%s: %w", scoutEmail, requirementID, err)
	}

	entry := domain.AuditEntry{
		ID:         uuid.NewString(),
		RunDate:    now.Format("2006-01-02"),
		ScoutEmail: scoutEmail,
		Action:     domain.AuditStatusOverridden,
		Details:    fmt.Sprintf("requirement=%s prior=%s new=%s reason=%s", requirementID, prior, to, reason),
		CreatedAt:  now,
	}
	if err := s.audit.Append(ctx, entry); err != nil {
		// The override itself succeeded; surface the audit failure loudly.
		s.logger.ErrorContext(ctx, "audit append failed for status override",
			"scout_email", scoutEmail,
			"requirement_id", requirementID,
			"error", err,
		)
		return req, fmt.Errorf("append override audit entry: %w", err)
	}

	return req, nil
}
