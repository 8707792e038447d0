package drift

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"pathfinder/internal/domain"
	"pathfinder/internal/storage"
	"pathfinder/pkg/platform/sentinel"
)

// Thresholds configures the mechanical checks, in whole days. The parent
// alert threshold must be strictly greater than the reminder threshold.
type Thresholds struct {
	InactivityReminderDays    uint
	InactivityParentAlertDays uint
	PlanReviewStalenessDays   uint
}

func (t Thresholds) Validate() error {
	if t.InactivityReminderDays == 0 || t.InactivityParentAlertDays == 0 || t.PlanReviewStalenessDays == 0 {
		return fmt.Errorf("all drift thresholds must be positive")
	}
	if t.InactivityParentAlertDays <= t.InactivityReminderDays {
		return fmt.Errorf("parent alert threshold (%d) must be greater than reminder threshold (%d)",
			t.InactivityParentAlertDays, t.InactivityReminderDays)
	}
	return nil
}

// ScoutCheckResult is one scout's drift computation for a single run.
// Findings contribute lines to DriftDetails; DriftDetected is true iff
// DriftDetails is non-empty.
type ScoutCheckResult struct {
	ScoutEmail    string
	DriftDetected bool
	DriftDetails  []string
	Notifications []domain.QueuedNotification
}

// Detector computes staleness findings for every scout against the
// configured thresholds. Detection is a pure function of store state and
// thresholds: it carries no cross-run state and writes nothing.
type Detector struct {
	scouts     storage.ScoutStore
	activity   storage.ActivityStore
	plans      storage.PlanStore
	thresholds Thresholds
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Detector)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

func New(scouts storage.ScoutStore, activity storage.ActivityStore, plans storage.PlanStore, thresholds Thresholds, opts ...Option) (*Detector, error) {
	if scouts == nil {
		return nil, fmt.Errorf("scout store is required")
	}
	if activity == nil {
		return nil, fmt.Errorf("activity store is required")
	}
	if plans == nil {
		return nil, fmt.Errorf("plan store is required")
	}
	if err := thresholds.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		scouts:     scouts,
		activity:   activity,
		plans:      plans,
		thresholds: thresholds,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// RunMechanicalChecks evaluates every scout known to the store. Per-scout
// checks are independent and read-only, so they run in parallel; each writes
// only its own slot of the result slice. A store-unavailable failure aborts
// the whole batch, while any other per-scout failure is logged and that scout
// is skipped.
func (d *Detector) RunMechanicalChecks(ctx context.Context) ([]ScoutCheckResult, error) {
	scouts, err := d.scouts.ListScouts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scouts: %w", err)
	}

	results := make([]*ScoutCheckResult, len(scouts))
	g, gctx := errgroup.WithContext(ctx)
	for i, scout := range scouts {
		g.Go(func() error {
			result, err := d.checkScout(gctx, scout)
			if err != nil {
				if errors.Is(err, sentinel.ErrUnavailable) {
					return err
				}
				d.logger.WarnContext(gctx, "drift check failed for scout, skipping",
					"scout_email", scout.Email,
					"error", err,
				)
				return nil
			}
			results[i] = &result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	checked := make([]ScoutCheckResult, 0, len(results))
	for _, result := range results {
		if result != nil {
			checked = append(checked, *result)
		}
	}
	return checked, nil
}

func (d *Detector) checkScout(ctx context.Context, scout domain.Scout) (ScoutCheckResult, error) {
	result := ScoutCheckResult{ScoutEmail: scout.Email}

	lastActivity, err := d.latestActivity(ctx, scout.Email)
	if err != nil {
		return ScoutCheckResult{}, err
	}
	d.checkInactivity(&result, lastActivity)

	plan, err := d.plans.FindPlan(ctx, scout.Email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		// Absence of a plan is not absence of drift: treat as maximally stale.
		d.checkPlanStaleness(&result, time.Time{})
	case err != nil:
		return ScoutCheckResult{}, fmt.Errorf("find plan: %w", err)
	default:
		d.checkPlanStaleness(&result, plan.LastReviewed)
	}

	result.DriftDetected = len(result.DriftDetails) > 0
	return result, nil
}

// latestActivity returns the most recent of the three activity feeds. The
// zero time means the scout has no recorded activity at all.
func (d *Detector) latestActivity(ctx context.Context, scoutEmail string) (time.Time, error) {
	chore, err := d.activity.LatestChore(ctx, scoutEmail)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest chore: %w", err)
	}
	budget, err := d.activity.LatestBudgetEntry(ctx, scoutEmail)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest budget entry: %w", err)
	}
	diary, err := d.activity.LatestDiaryEntry(ctx, scoutEmail)
	if err != nil {
		return time.Time{}, fmt.Errorf("latest diary entry: %w", err)
	}

	latest := chore
	if budget.After(latest) {
		latest = budget
	}
	if diary.After(latest) {
		latest = diary
	}
	return latest, nil
}

func (d *Detector) checkInactivity(result *ScoutCheckResult, lastActivity time.Time) {
	days, known := d.elapsedDays(lastActivity)

	if exceeded(days, known, d.thresholds.InactivityReminderDays) {
		result.DriftDetails = append(result.DriftDetails,
			fmt.Sprintf("inactivity: %s since last activity (reminder threshold %d days)",
				describeDays(days, known), d.thresholds.InactivityReminderDays))
		result.Notifications = append(result.Notifications, domain.QueuedNotification{
			ScoutEmail: result.ScoutEmail,
			Type:       domain.NotificationInactivityReminder,
			Message: fmt.Sprintf("%s without a chore, budget, or diary entry. Log something today to stay on track!",
				describeDays(days, known)),
			Target:   domain.TargetScout,
			Priority: domain.PriorityDefault,
		})
	}

	// The parent alert supersedes but does not suppress the reminder: both
	// fire on the same run when both thresholds are crossed, since they
	// target different recipients.
	if exceeded(days, known, d.thresholds.InactivityParentAlertDays) {
		result.DriftDetails = append(result.DriftDetails,
			fmt.Sprintf("inactivity: %s since last activity (parent alert threshold %d days)",
				describeDays(days, known), d.thresholds.InactivityParentAlertDays))
		result.Notifications = append(result.Notifications, domain.QueuedNotification{
			ScoutEmail: result.ScoutEmail,
			Type:       domain.NotificationInactivityParentAlert,
			Message: fmt.Sprintf("%s has gone %s without any recorded activity.",
				result.ScoutEmail, describeDays(days, known)),
			Target:   domain.TargetParent,
			Priority: domain.PriorityHigh,
		})
	}
}

func (d *Detector) checkPlanStaleness(result *ScoutCheckResult, lastReviewed time.Time) {
	days, known := d.elapsedDays(lastReviewed)
	if !exceeded(days, known, d.thresholds.PlanReviewStalenessDays) {
		return
	}

	result.DriftDetails = append(result.DriftDetails,
		fmt.Sprintf("plan review: %s since last review (staleness threshold %d days)",
			describeDays(days, known), d.thresholds.PlanReviewStalenessDays))
	result.Notifications = append(result.Notifications, domain.QueuedNotification{
		ScoutEmail: result.ScoutEmail,
		Type:       domain.NotificationPlanReviewStale,
		Message: fmt.Sprintf("%s's quest plan has not been reviewed for %s. Time to sit down together.",
			result.ScoutEmail, describeDays(days, known)),
		Target:   domain.TargetParent,
		Priority: domain.PriorityDefault,
	})
}

// elapsedDays floors the elapsed time since t to whole days. known is false
// when t is the zero time, meaning no record exists at all.
func (d *Detector) elapsedDays(t time.Time) (uint, bool) {
	if t.IsZero() {
		return 0, false
	}
	elapsed := d.now().Sub(t)
	if elapsed < 0 {
		return 0, true
	}
	return uint(elapsed.Hours() / 24), true
}

// exceeded applies the documented boundary rule: a threshold triggers at
// elapsed days strictly greater than the threshold, and missing history is
// maximally stale.
func exceeded(days uint, known bool, threshold uint) bool {
	if !known {
		return true
	}
	return days > threshold
}

func describeDays(days uint, known bool) string {
	if !known {
		return "no recorded history"
	}
	if days == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", days)
}
