package domain

import "time"

// Scout is the profile record for one scout. ParentEmail is informational;
// parent-targeted notifications route by topic, not by address.
type Scout struct {
	Email       string
	Name        string
	Troop       string
	ParentEmail string
}

// ChoreLog records one completed chore.
type ChoreLog struct {
	ScoutEmail string
	Chore      string
	LoggedAt   time.Time
}

// BudgetEntry records one budget line item.
type BudgetEntry struct {
	ScoutEmail string
	Amount     float64
	Note       string
	EnteredAt  time.Time
}

// DiaryEntry records one diary entry.
type DiaryEntry struct {
	ScoutEmail string
	Body       string
	WrittenAt  time.Time
}

// QuestPlan is the scout's current badge plan. LastReviewed drives the
// plan-staleness drift check.
type QuestPlan struct {
	ScoutEmail   string
	Summary      string
	LastReviewed time.Time
}
