package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pathfinder/internal/domain"
	"pathfinder/pkg/platform/tx"
)

// querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresStore persists the long-lived records (scouts, activity feeds,
// plans, requirements, audit log) in PostgreSQL. Schema management is the
// operator's concern; this store only reads and appends.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) (*PostgresStore, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle is required")
	}
	return &PostgresStore{db: db}, nil
}

// q returns the transaction from the context when one is present, otherwise
// the pooled handle. Callers that need multi-statement atomicity start a
// transaction and pass it down via tx.WithTx.
func (s *PostgresStore) q(ctx context.Context) querier {
	if t, ok := tx.From(ctx); ok {
		return t
	}
	return s.db
}

func (s *PostgresStore) ListScouts(ctx context.Context) ([]domain.Scout, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT email, name, troop, parent_email FROM scouts ORDER BY email`)
	if err != nil {
		return nil, wrapStoreErr("list scouts", err)
	}
	defer rows.Close()

	var scouts []domain.Scout
	for rows.Next() {
		var scout domain.Scout
		if err := rows.Scan(&scout.Email, &scout.Name, &scout.Troop, &scout.ParentEmail); err != nil {
			return nil, fmt.Errorf("scan scout: %w", err)
		}
		scouts = append(scouts, scout)
	}
	return scouts, rows.Err()
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (domain.Scout, error) {
	var scout domain.Scout
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT email, name, troop, parent_email FROM scouts WHERE email = $1`, email).
		Scan(&scout.Email, &scout.Name, &scout.Troop, &scout.ParentEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Scout{}, ErrNotFound
	}
	if err != nil {
		return domain.Scout{}, wrapStoreErr("find scout", err)
	}
	return scout, nil
}

func (s *PostgresStore) SaveScout(ctx context.Context, scout domain.Scout) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO scouts (email, name, troop, parent_email)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (email)
		 DO UPDATE SET name = $2, troop = $3, parent_email = $4`,
		scout.Email, scout.Name, scout.Troop, scout.ParentEmail)
	if err != nil {
		return wrapStoreErr("save scout", err)
	}
	return nil
}

func (s *PostgresStore) LatestChore(ctx context.Context, scoutEmail string) (time.Time, error) {
	return s.latestTimestamp(ctx,
		`SELECT MAX(logged_at) FROM chore_logs WHERE scout_email = $1`, scoutEmail)
}

func (s *PostgresStore) LatestBudgetEntry(ctx context.Context, scoutEmail string) (time.Time, error) {
	return s.latestTimestamp(ctx,
		`SELECT MAX(entered_at) FROM budget_entries WHERE scout_email = $1`, scoutEmail)
}

func (s *PostgresStore) LatestDiaryEntry(ctx context.Context, scoutEmail string) (time.Time, error) {
	return s.latestTimestamp(ctx,
		`SELECT MAX(written_at) FROM diary_entries WHERE scout_email = $1`, scoutEmail)
}

// latestTimestamp returns the zero time when the scout has no rows, matching
// the ActivityStore contract.
func (s *PostgresStore) latestTimestamp(ctx context.Context, query, scoutEmail string) (time.Time, error) {
	var latest sql.NullTime
	if err := s.q(ctx).QueryRowContext(ctx, query, scoutEmail).Scan(&latest); err != nil {
		return time.Time{}, wrapStoreErr("latest activity", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	return latest.Time, nil
}

func (s *PostgresStore) FindPlan(ctx context.Context, scoutEmail string) (domain.QuestPlan, error) {
	var plan domain.QuestPlan
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT scout_email, summary, last_reviewed FROM quest_plans WHERE scout_email = $1`, scoutEmail).
		Scan(&plan.ScoutEmail, &plan.Summary, &plan.LastReviewed)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuestPlan{}, ErrNotFound
	}
	if err != nil {
		return domain.QuestPlan{}, wrapStoreErr("find plan", err)
	}
	return plan, nil
}

func (s *PostgresStore) FindRequirement(ctx context.Context, scoutEmail, requirementID string) (domain.Requirement, error) {
	req := domain.Requirement{ScoutEmail: scoutEmail, RequirementID: requirementID}
	var status string
	err := s.q(ctx).QueryRowContext(ctx,
		`SELECT status, notes, updated_at FROM requirements
		 WHERE scout_email = $1 AND requirement_id = $2`, scoutEmail, requirementID).
		Scan(&status, pq.Array(&req.Notes), &req.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Requirement{}, ErrNotFound
	}
	if err != nil {
		return domain.Requirement{}, wrapStoreErr("find requirement", err)
	}
	req.Status = domain.RequirementStatus(status)
	return req, nil
}

func (s *PostgresStore) SaveRequirement(ctx context.Context, req domain.Requirement) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO requirements (scout_email, requirement_id, status, notes, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (scout_email, requirement_id)
		 DO UPDATE SET status = $3, notes = $4, updated_at = $5`,
		req.ScoutEmail, req.RequirementID, req.Status.String(), pq.Array(req.Notes), req.UpdatedAt)
	if err != nil {
		return wrapStoreErr("save requirement", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, entry domain.AuditEntry) error {
	_, err := s.q(ctx).ExecContext(ctx,
		`INSERT INTO audit_log (id, run_date, scout_email, action, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.RunDate, entry.ScoutEmail, string(entry.Action), entry.Details, entry.CreatedAt)
	if err != nil {
		return wrapStoreErr("append audit entry", err)
	}
	return nil
}

func (s *PostgresStore) ListByScout(ctx context.Context, scoutEmail string) ([]domain.AuditEntry, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT id, run_date, scout_email, action, details, created_at
		 FROM audit_log WHERE scout_email = $1 ORDER BY created_at`, scoutEmail)
	if err != nil {
		return nil, wrapStoreErr("list audit entries", err)
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var entry domain.AuditEntry
		var action string
		if err := rows.Scan(&entry.ID, &entry.RunDate, &entry.ScoutEmail, &action, &entry.Details, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = domain.AuditAction(action)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// wrapStoreErr tags driver-level failures as unavailable so callers can
// distinguish an unreachable store from a missing record.
func wrapStoreErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
