package domain

import "time"

// AuditAction classifies audit-log entries written by the core.
type AuditAction string

const (
	// AuditDriftDetected records one drift finding produced by a pipeline run.
	AuditDriftDetected AuditAction = "drift_detected"
	// AuditNotificationSent records one delivered notification.
	AuditNotificationSent AuditAction = "notification_sent"
	// AuditStatusOverridden records an administrative status override that
	// bypassed the transition table.
	AuditStatusOverridden AuditAction = "status_overridden"
)

// AuditEntry is one append-only audit row. Entries are never updated or
// deleted by this core.
type AuditEntry struct {
	ID         string
	RunDate    string
	ScoutEmail string
	Action     AuditAction
	Details    string
	CreatedAt  time.Time
}
