package domain

// NotificationTarget selects the topic a notification routes to.
type NotificationTarget string

const (
	TargetScout  NotificationTarget = "scout"
	TargetParent NotificationTarget = "parent"
)

// Priority maps onto the push transport's priority levels.
type Priority string

const (
	PriorityLow     Priority = "low"
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
)

// NotificationType names the drift condition behind a queued notification.
type NotificationType string

const (
	NotificationInactivityReminder    NotificationType = "inactivity_reminder"
	NotificationInactivityParentAlert NotificationType = "inactivity_parent_alert"
	NotificationPlanReviewStale       NotificationType = "plan_review_stale"
)

// QueuedNotification is produced by the drift detector and consumed exactly
// once by the dispatcher within the same pipeline run. It is never persisted;
// only its audit trail is.
type QueuedNotification struct {
	ScoutEmail string
	Type       NotificationType
	Message    string
	Target     NotificationTarget
	Priority   Priority
}
