package services

import (
	"context"
	"sort"
	"sync"

	"github.com/AnshRaj112/vikas-backend/internal/models"
)

// MemoryProgressBackend keeps progress in process memory.
type MemoryProgressBackend struct {
	mu         sync.Mutex
	aggregates map[string]models.StudentAggregate
	attempts   []models.QuizAttempt
}

func NewMemoryProgressBackend() *MemoryProgressBackend {
	return &MemoryProgressBackend{aggregates: make(map[string]models.StudentAggregate)}
}

func (m *MemoryProgressBackend) Increment(_ context.Context, seed models.StudentAggregate, rpDelta int, tierOf func(int) string) (models.StudentAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agg, ok := m.aggregates[seed.Username]
	if !ok {
		agg = seed
		agg.RP, agg.Quizzes = 0, 0
	}
	agg.RP += rpDelta
	agg.Quizzes++
	agg.Tier = tierOf(agg.RP)
	m.aggregates[seed.Username] = agg
	return agg, nil
}

func (m *MemoryProgressBackend) GetAggregate(_ context.Context, username string) (models.StudentAggregate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	agg, ok := m.aggregates[username]
	if !ok {
		return models.StudentAggregate{}, ErrNotFound
	}
	return agg, nil
}

func (m *MemoryProgressBackend) TopAggregates(_ context.Context, limit int) ([]models.StudentAggregate, error) {
	m.mu.Lock()
	out := make([]models.StudentAggregate, 0, len(m.aggregates))
	for _, agg := range m.aggregates {
		out = append(out, agg)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].RP != out[j].RP {
			return out[i].RP > out[j].RP
		}
		return out[i].Username < out[j].Username
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryProgressBackend) AppendAttempt(_ context.Context, a models.QuizAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *MemoryProgressBackend) ListAttempts(_ context.Context, username string, limit int) ([]models.QuizAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.QuizAttempt{}
	for i := len(m.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		if m.attempts[i].Username == username {
			out = append(out, m.attempts[i])
		}
	}
	return out, nil
}
