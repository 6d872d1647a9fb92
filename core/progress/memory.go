package progress

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository keeps completions in process memory. It backs local
// development and tests; state is lost on restart.
type MemoryRepository struct {
	mu     sync.Mutex
	slides map[string]map[string]time.Time
	days   map[string]map[int]time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		slides: make(map[string]map[string]time.Time),
		days:   make(map[string]map[int]time.Time),
	}
}

func (m *MemoryRepository) CompletedSlides(ctx context.Context, userID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.slides[userID]))
	for id := range m.slides[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryRepository) AddSlide(ctx context.Context, userID, slideID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slides[userID]
	if !ok {
		s = make(map[string]time.Time)
		m.slides[userID] = s
	}
	if _, done := s[slideID]; !done {
		s[slideID] = at
	}
	return nil
}

func (m *MemoryRepository) DayCompletions(ctx context.Context, userID string) ([]DayCompletion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]DayCompletion, 0, len(m.days[userID]))
	for d, at := range m.days[userID] {
		out = append(out, DayCompletion{Day: d, CompletedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out, nil
}

func (m *MemoryRepository) AddDay(ctx context.Context, userID string, day int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.days[userID]
	if !ok {
		d = make(map[int]time.Time)
		m.days[userID] = d
	}
	if _, done := d[day]; !done {
		d[day] = at
	}
	return nil
}
