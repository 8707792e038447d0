package drift

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder/internal/domain"
	"pathfinder/internal/storage"
	"pathfinder/pkg/platform/sentinel"
)

var testNow = time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

func defaultThresholds() Thresholds {
	return Thresholds{
		InactivityReminderDays:    3,
		InactivityParentAlertDays: 7,
		PlanReviewStalenessDays:   14,
	}
}

func newTestDetector(t *testing.T, store *storage.MemoryStore) *Detector {
	t.Helper()
	detector, err := New(store, store, store, defaultThresholds(),
		WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)
	return detector
}

func daysAgo(days int) time.Time {
	return testNow.Add(-time.Duration(days) * 24 * time.Hour)
}

func seedScout(store *storage.MemoryStore, email string) {
	store.AddScout(domain.Scout{Email: email, Name: "Test Scout", Troop: "T1"})
}

func TestThresholds_Validate(t *testing.T) {
	assert.NoError(t, defaultThresholds().Validate())

	bad := defaultThresholds()
	bad.InactivityParentAlertDays = bad.InactivityReminderDays
	assert.Error(t, bad.Validate(), "parent alert must be strictly greater than reminder")

	assert.Error(t, Thresholds{}.Validate())
}

func TestRunMechanicalChecks_InactiveScoutCrossesBothThresholds(t *testing.T) {
	store := storage.NewMemoryStore()
	seedScout(store, "scout@example.com")
	store.AddChore(domain.ChoreLog{ScoutEmail: "scout@example.com", Chore: "dishes", LoggedAt: daysAgo(10)})
	store.SavePlan(domain.QuestPlan{ScoutEmail: "scout@example.com", LastReviewed: daysAgo(1)})

	results, err := newTestDetector(t, store).RunMechanicalChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.True(t, result.DriftDetected)
	require.Len(t, result.DriftDetails, 2, "reminder and parent alert both fire")
	assert.Contains(t, result.DriftDetails[0], "inactivity")

	require.Len(t, result.Notifications, 2)
	byType := map[domain.NotificationType]domain.QueuedNotification{}
	for _, n := range result.Notifications {
		byType[n.Type] = n
	}
	reminder := byType[domain.NotificationInactivityReminder]
	assert.Equal(t, domain.TargetScout, reminder.Target)
	alert := byType[domain.NotificationInactivityParentAlert]
	assert.Equal(t, domain.TargetParent, alert.Target)
	assert.Equal(t, domain.PriorityHigh, alert.Priority)
}

func TestRunMechanicalChecks_RecentActivityNoDrift(t *testing.T) {
	store := storage.NewMemoryStore()
	seedScout(store, "scout@example.com")
	store.AddDiaryEntry(domain.DiaryEntry{ScoutEmail: "scout@example.com", WrittenAt: daysAgo(1)})
	store.SavePlan(domain.QuestPlan{ScoutEmail: "scout@example.com", LastReviewed: daysAgo(2)})

	results, err := newTestDetector(t, store).RunMechanicalChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].DriftDetected)
	assert.Empty(t, results[0].DriftDetails)
	assert.Empty(t, results[0].Notifications)
}

func TestRunMechanicalChecks_MostRecentActivityWins(t *testing.T) {
	// An old chore plus a fresh budget entry means the scout is active.
	store := storage.NewMemoryStore()
	seedScout(store, "scout@example.com")
	store.AddChore(domain.ChoreLog{ScoutEmail: "scout@example.com", LoggedAt: daysAgo(30)})
	store.AddBudgetEntry(domain.BudgetEntry{ScoutEmail: "scout@example.com", EnteredAt: daysAgo(1)})
	store.SavePlan(domain.QuestPlan{ScoutEmail: "scout@example.com", LastReviewed: daysAgo(2)})

	results, err := newTestDetector(t, store).RunMechanicalChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].DriftDetected)
}

func TestRunMechanicalChecks_ExactThresholdDoesNotTrigger(t *testing.T) {
	// Documented boundary: staleness triggers at elapsed days strictly
	// greater than the threshold.
	store := storage.NewMemoryStore()
	seedScout(store, "scout@example.com")
	store.AddChore(domain.ChoreLog{ScoutEmail: "scout@example.com", LoggedAt: daysAgo(1)})
	store.SavePlan(domain.QuestPlan{ScoutEmail: "scout@example.com", LastReviewed: daysAgo(14)})

	results, err := newTestDetector(t, store).RunMechanicalChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.False(t, results[0].DriftDetected, "exactly-equal elapsed days must not trigger")

	store.SavePlan(domain.QuestPlan{ScoutEmail: "scout@example.com", LastReviewed: daysAgo(15)})
	results, err = newTestDetector(t, store).RunMechanicalChecks(context.Background())
	require.NoError(t, err)
	require.True(t, results[0].DriftDetected)
	require.Len(t, results[0].Notifications, 1)
	assert.Equal(t, domain.NotificationPlanReviewStale, results[0].Notifications[0].Type)
	assert.Equal(t, domain.TargetParent, results[0].Notifications[0].Target)
}

func TestRunMechanicalChecks_NoHistoryIsMaximallyStale(t *testing.T) {
	// Absence of data is not absence of drift: a scout with no activity and
	// no plan exceeds every threshold.
	store := storage.NewMemoryStore()
	seedScout(store, "scout@example.com")

	results, err := newTestDetector(t, store).RunMechanicalChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)

	result := results[0]
	assert.True(t, result.DriftDetected)
	assert.Len(t, result.DriftDetails, 3)
	assert.Len(t, result.Notifications, 3)
}

func TestRunMechanicalChecks_IndependentPerScout(t *testing.T) {
	store := storage.NewMemoryStore()
	for i := 0; i < 20; i++ {
		email := fmt.Sprintf("scout%d@example.com", i)
		seedScout(store, email)
		if i%2 == 0 {
			store.AddChore(domain.ChoreLog{ScoutEmail: email, LoggedAt: daysAgo(1)})
			store.SavePlan(domain.QuestPlan{ScoutEmail: email, LastReviewed: daysAgo(1)})
		}
	}

	results, err := newTestDetector(t, store).RunMechanicalChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 20)

	drifted := 0
	for _, result := range results {
		if result.DriftDetected {
			drifted++
		}
	}
	assert.Equal(t, 10, drifted)
}

// unavailableActivityStore simulates an unreachable store mid-batch.
type unavailableActivityStore struct {
	*storage.MemoryStore
}

func (s unavailableActivityStore) LatestChore(context.Context, string) (time.Time, error) {
	return time.Time{}, fmt.Errorf("connection refused: %w", sentinel.ErrUnavailable)
}

func TestRunMechanicalChecks_StoreUnavailableAbortsBatch(t *testing.T) {
	store := storage.NewMemoryStore()
	seedScout(store, "a@example.com")
	seedScout(store, "b@example.com")

	detector, err := New(store, unavailableActivityStore{store}, store, defaultThresholds(),
		WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	results, err := detector.RunMechanicalChecks(context.Background())
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Nil(t, results, "fail fast: no partial results on an unreachable store")
}

// flakyPlanStore fails one scout's read with a non-fatal error.
type flakyPlanStore struct {
	*storage.MemoryStore
	failFor string
}

func (s flakyPlanStore) FindPlan(ctx context.Context, scoutEmail string) (domain.QuestPlan, error) {
	if scoutEmail == s.failFor {
		return domain.QuestPlan{}, fmt.Errorf("corrupt plan record")
	}
	return s.MemoryStore.FindPlan(ctx, scoutEmail)
}

func TestRunMechanicalChecks_SingleScoutFailureSkipsScout(t *testing.T) {
	store := storage.NewMemoryStore()
	seedScout(store, "ok@example.com")
	seedScout(store, "broken@example.com")
	for _, email := range []string{"ok@example.com", "broken@example.com"} {
		store.AddChore(domain.ChoreLog{ScoutEmail: email, LoggedAt: daysAgo(1)})
		store.SavePlan(domain.QuestPlan{ScoutEmail: email, LastReviewed: daysAgo(1)})
	}

	detector, err := New(store, store, flakyPlanStore{store, "broken@example.com"}, defaultThresholds(),
		WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	results, err := detector.RunMechanicalChecks(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1, "failed scout is skipped, not fatal")
	assert.Equal(t, "ok@example.com", results[0].ScoutEmail)
}
