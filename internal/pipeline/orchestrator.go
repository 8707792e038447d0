package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pathfinder/internal/domain"
	"pathfinder/internal/drift"
	"pathfinder/internal/notify"
	"pathfinder/internal/platform/metrics"
	"pathfinder/internal/storage"
	"pathfinder/pkg/platform/sentinel"
)

// runState tracks the single active state of one pipeline run. It exists for
// the run's own logging; nothing is persisted across runs.
type runState string

const (
	stateStarted                 runState = "started"
	stateChecksRun               runState = "checks_run"
	stateFindingsLogged          runState = "findings_logged"
	stateNotificationsDispatched runState = "notifications_dispatched"
	stateCompleted               runState = "completed"
)

// Summary is the completion record of one run, emitted to the operational
// log.
type Summary struct {
	RunID               string
	ScoutsChecked       int
	FindingsLogged      int
	NotificationsSent   int
	NotificationsFailed int
	Duration            time.Duration
}

// Orchestrator executes one scheduled consistency pass per invocation: drift
// checks across all scouts, durable audit logging of every finding, then one
// batched notification dispatch. The external scheduler owns the timer; this
// type owns everything between tick and summary.
type Orchestrator struct {
	detector     *drift.Detector
	dispatcher   *notify.Dispatcher
	audit        storage.AuditStore
	guard        RunGuard
	primaryTopic string
	parentTopic  string
	metrics      *metrics.Metrics
	logger       *slog.Logger
	now          func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

func New(detector *drift.Detector, dispatcher *notify.Dispatcher, audit storage.AuditStore, guard RunGuard, primaryTopic, parentTopic string, opts ...Option) (*Orchestrator, error) {
	if detector == nil {
		return nil, fmt.Errorf("drift detector is required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit store is required")
	}
	if guard == nil {
		return nil, fmt.Errorf("run guard is required")
	}
	if primaryTopic == "" {
		return nil, fmt.Errorf("primary topic is required")
	}

	o := &Orchestrator{
		detector:     detector,
		dispatcher:   dispatcher,
		audit:        audit,
		guard:        guard,
		primaryTopic: primaryTopic,
		parentTopic:  parentTopic,
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes one complete pass. A concurrent run already holding the guard
// makes this invocation return sentinel.ErrRunInProgress after a logged
// warning. A detector or audit failure aborts before any notification is
// attempted; individual delivery failures never fail the run.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	release, acquired, err := o.guard.TryAcquire(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("acquire run guard: %w", err)
	}
	if !acquired {
		o.logger.WarnContext(ctx, "pipeline run skipped, previous run still in progress")
		if o.metrics != nil {
			o.metrics.PipelineRunsSkipped.Inc()
		}
		return Summary{}, sentinel.ErrRunInProgress
	}
	defer release()

	start := o.now()
	summary := Summary{RunID: uuid.NewString()}
	log := o.logger.With("run_id", summary.RunID)
	state := stateStarted
	log.InfoContext(ctx, "pipeline run started", "state", state)

	results, err := o.detector.RunMechanicalChecks(ctx)
	if err != nil {
		// Fail fast: never notify on partial or unknown state.
		return Summary{}, fmt.Errorf("mechanical checks: %w", err)
	}
	state = stateChecksRun
	summary.ScoutsChecked = len(results)
	log.DebugContext(ctx, "mechanical checks finished", "state", state, "scouts_checked", len(results))
	if o.metrics != nil {
		o.metrics.ScoutsChecked.Add(float64(len(results)))
	}

	// All findings are durably logged before any external notification
	// attempt, so a transport failure never loses the audit trail. Entries
	// are grouped per scout.
	runDate := start.Format("2006-01-02")
	for _, result := range results {
		if !result.DriftDetected {
			continue
		}
		for _, detail := range result.DriftDetails {
			entry := domain.AuditEntry{
				ID:         uuid.NewString(),
				RunDate:    runDate,
				ScoutEmail: result.ScoutEmail,
				Action:     domain.AuditDriftDetected,
				Details:    detail,
				CreatedAt:  o.now(),
			}
			if err := o.audit.Append(ctx, entry); err != nil {
				return Summary{}, fmt.Errorf("append drift audit entry for %s: %w", result.ScoutEmail, err)
			}
			summary.FindingsLogged++
		}
	}
	state = stateFindingsLogged
	log.DebugContext(ctx, "findings logged", "state", state, "findings_logged", summary.FindingsLogged)
	if o.metrics != nil {
		o.metrics.FindingsLogged.Add(float64(summary.FindingsLogged))
	}

	var batch []domain.QueuedNotification
	for _, result := range results {
		batch = append(batch, result.Notifications...)
	}
	outcome := o.dispatcher.SendNotifications(ctx, batch, o.primaryTopic, o.parentTopic)
	state = stateNotificationsDispatched
	log.DebugContext(ctx, "notifications dispatched", "state", state, "sent", outcome.Sent, "failed", outcome.Failed)
	summary.NotificationsSent = outcome.Sent
	summary.NotificationsFailed = outcome.Failed

	state = stateCompleted
	summary.Duration = o.now().Sub(start)
	if o.metrics != nil {
		o.metrics.PipelineRuns.Inc()
	}
	log.InfoContext(ctx, "pipeline run completed",
		"state", state,
		"scouts_checked", summary.ScoutsChecked,
		"findings_logged", summary.FindingsLogged,
		"notifications_sent", summary.NotificationsSent,
		"notifications_failed", summary.NotificationsFailed,
		"duration", summary.Duration,
	)
	return summary, nil
}
