package storage

import (
	"context"
	"sync"
	"time"

	"pathfinder/internal/domain"
)

// MemoryStore implements every store interface with mutex-guarded maps. It is
// the default wiring for development and the fixture store for tests.
type MemoryStore struct {
	mu           sync.RWMutex
	scouts       map[string]domain.Scout
	chores       map[string][]domain.ChoreLog
	budget       map[string][]domain.BudgetEntry
	diary        map[string][]domain.DiaryEntry
	plans        map[string]domain.QuestPlan
	requirements map[string]map[string]domain.Requirement
	audit        map[string][]domain.AuditEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		scouts:       make(map[string]domain.Scout),
		chores:       make(map[string][]domain.ChoreLog),
		budget:       make(map[string][]domain.BudgetEntry),
		diary:        make(map[string][]domain.DiaryEntry),
		plans:        make(map[string]domain.QuestPlan),
		requirements: make(map[string]map[string]domain.Requirement),
		audit:        make(map[string][]domain.AuditEntry),
	}
}

func (s *MemoryStore) ListScouts(_ context.Context) ([]domain.Scout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scouts := make([]domain.Scout, 0, len(s.scouts))
	for _, scout := range s.scouts {
		scouts = append(scouts, scout)
	}
	return scouts, nil
}

func (s *MemoryStore) FindByEmail(_ context.Context, email string) (domain.Scout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	scout, ok := s.scouts[email]
	if !ok {
		return domain.Scout{}, ErrNotFound
	}
	return scout, nil
}

func (s *MemoryStore) SaveScout(_ context.Context, scout domain.Scout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scouts[scout.Email] = scout
	return nil
}

// AddScout is the fixture-seeding form of SaveScout.
func (s *MemoryStore) AddScout(scout domain.Scout) {
	_ = s.SaveScout(context.Background(), scout)
}

func (s *MemoryStore) AddChore(log domain.ChoreLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chores[log.ScoutEmail] = append(s.chores[log.ScoutEmail], log)
}

func (s *MemoryStore) AddBudgetEntry(entry domain.BudgetEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget[entry.ScoutEmail] = append(s.budget[entry.ScoutEmail], entry)
}

func (s *MemoryStore) AddDiaryEntry(entry domain.DiaryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diary[entry.ScoutEmail] = append(s.diary[entry.ScoutEmail], entry)
}

func (s *MemoryStore) SavePlan(plan domain.QuestPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plans[plan.ScoutEmail] = plan
}

func (s *MemoryStore) LatestChore(_ context.Context, scoutEmail string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	for _, log := range s.chores[scoutEmail] {
		if log.LoggedAt.After(latest) {
			latest = log.LoggedAt
		}
	}
	return latest, nil
}

func (s *MemoryStore) LatestBudgetEntry(_ context.Context, scoutEmail string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	for _, entry := range s.budget[scoutEmail] {
		if entry.EnteredAt.After(latest) {
			latest = entry.EnteredAt
		}
	}
	return latest, nil
}

func (s *MemoryStore) LatestDiaryEntry(_ context.Context, scoutEmail string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var latest time.Time
	for _, entry := range s.diary[scoutEmail] {
		if entry.WrittenAt.After(latest) {
			latest = entry.WrittenAt
		}
	}
	return latest, nil
}

func (s *MemoryStore) FindPlan(_ context.Context, scoutEmail string) (domain.QuestPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	plan, ok := s.plans[scoutEmail]
	if !ok {
		return domain.QuestPlan{}, ErrNotFound
	}
	return plan, nil
}

func (s *MemoryStore) FindRequirement(_ context.Context, scoutEmail, requirementID string) (domain.Requirement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requirements[scoutEmail][requirementID]
	if !ok {
		return domain.Requirement{}, ErrNotFound
	}
	return req, nil
}

func (s *MemoryStore) SaveRequirement(_ context.Context, req domain.Requirement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.requirements[req.ScoutEmail] == nil {
		s.requirements[req.ScoutEmail] = make(map[string]domain.Requirement)
	}
	s.requirements[req.ScoutEmail][req.RequirementID] = req
	return nil
}

func (s *MemoryStore) Append(_ context.Context, entry domain.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audit[entry.ScoutEmail] = append(s.audit[entry.ScoutEmail], entry)
	return nil
}

func (s *MemoryStore) ListByScout(_ context.Context, scoutEmail string) ([]domain.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.AuditEntry{}, s.audit[scoutEmail]...), nil
}

// AuditCount reports the total number of audit entries across all scouts.
// Test helper; not part of the store interfaces.
func (s *MemoryStore) AuditCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, entries := range s.audit {
		total += len(entries)
	}
	return total
}
