package storage

import (
	"context"
	"time"

	"pathfinder/internal/domain"
)

// Stores are interface-driven to keep the domain logic testable and to allow
// swapping in-memory, Postgres, or external persistence without rewiring
// business code. The core requires read-committed consistency per record and
// never assumes cross-record transactions.

type ScoutStore interface {
	ListScouts(ctx context.Context) ([]domain.Scout, error)
	FindByEmail(ctx context.Context, email string) (domain.Scout, error)
	SaveScout(ctx context.Context, scout domain.Scout) error
}

// ActivityStore exposes the three activity feeds the inactivity check reads.
// A zero time with a nil error means the scout has no history of that kind.
type ActivityStore interface {
	LatestChore(ctx context.Context, scoutEmail string) (time.Time, error)
	LatestBudgetEntry(ctx context.Context, scoutEmail string) (time.Time, error)
	LatestDiaryEntry(ctx context.Context, scoutEmail string) (time.Time, error)
}

type PlanStore interface {
	FindPlan(ctx context.Context, scoutEmail string) (domain.QuestPlan, error)
}

type RequirementStore interface {
	FindRequirement(ctx context.Context, scoutEmail, requirementID string) (domain.Requirement, error)
	SaveRequirement(ctx context.Context, req domain.Requirement) error
}

// AuditStore is append-only. Entries are keyed by run date and scout email
// and are never updated or deleted by this core.
type AuditStore interface {
	Append(ctx context.Context, entry domain.AuditEntry) error
	ListByScout(ctx context.Context, scoutEmail string) ([]domain.AuditEntry, error)
}
