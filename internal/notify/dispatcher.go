package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"pathfinder/internal/domain"
	"pathfinder/internal/platform/metrics"
	"pathfinder/internal/storage"
)

// Dispatcher delivers queued notifications and records each successful
// delivery in the audit log. Delivery failures are recovered per notification
// and never abort the batch; partial delivery is expected. There is no retry
// here, and no dedup across runs.
type Dispatcher struct {
	transport Transport
	audit     storage.AuditStore
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Dispatcher)

func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithClock injects the time source for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func New(transport Transport, audit storage.AuditStore, opts ...Option) (*Dispatcher, error) {
	if transport == nil {
		return nil, fmt.Errorf("transport is required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit store is required")
	}

	d := &Dispatcher{
		transport: transport,
		audit:     audit,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Outcome summarizes one batch for the run summary.
type Outcome struct {
	Sent   int
	Failed int
}

// SendNotifications delivers one batch. Parent-targeted notifications go to
// parentTopic; when no parent topic is configured they fall back to
// primaryTopic rather than being silently dropped. The notification_sent
// audit entry is written after the transport call resolves, and only for
// deliveries that succeeded.
func (d *Dispatcher) SendNotifications(ctx context.Context, notifications []domain.QueuedNotification, primaryTopic, parentTopic string) Outcome {
	var outcome Outcome
	for _, notification := range notifications {
		topic := primaryTopic
		if notification.Target == domain.TargetParent && parentTopic != "" {
			topic = parentTopic
		}

		err := d.transport.Send(ctx, topic, title(notification.Type), notification.Priority, notification.Message)
		if err != nil {
			outcome.Failed++
			if d.metrics != nil {
				d.metrics.NotificationsFailed.Inc()
			}
			d.logger.ErrorContext(ctx, "notification delivery failed",
				"scout_email", notification.ScoutEmail,
				"type", notification.Type,
				"topic", topic,
				"error", err,
			)
			continue
		}

		outcome.Sent++
		if d.metrics != nil {
			d.metrics.NotificationsSent.Inc()
		}

		now := d.now()
		entry := domain.AuditEntry{
			ID:         uuid.NewString(),
			RunDate:    now.Format("2006-01-02"),
			ScoutEmail: notification.ScoutEmail,
			Action:     domain.AuditNotificationSent,
			Details: fmt.Sprintf("type=%s target=%s message=%s",
				notification.Type, notification.Target, notification.Message),
			CreatedAt: now,
		}
		if err := d.audit.Append(ctx, entry); err != nil {
			// The notification is already out; a crash or failure here means
			// the audit row is lost, which at-least-once semantics accept.
			d.logger.ErrorContext(ctx, "audit append failed for sent notification",
				"scout_email", notification.ScoutEmail,
				"type", notification.Type,
				"error", err,
			)
		}
	}
	return outcome
}

func title(t domain.NotificationType) string {
	switch t {
	case domain.NotificationInactivityReminder:
		return "Time to log some activity"
	case domain.NotificationInactivityParentAlert:
		return "Scout inactivity alert"
	case domain.NotificationPlanReviewStale:
		return "Quest plan review overdue"
	default:
		return "Pathfinder notification"
	}
}
