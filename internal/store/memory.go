package store

import (
	"errors"
	"sync"
	"time"

	"github.com/DSBisht13/Weather-Union/internal/weather"
)

var (
	// ErrNotFound is returned when no run summary matches.
	ErrNotFound = errors.New("no run summaries recorded")
)

// MemoryStore is a concurrency-safe in-memory history of run summaries.
type MemoryStore struct {
	mu sync.RWMutex

	// ordered by StartedAt, oldest first
	summaries []weather.RunSummary

	// retention configuration
	maxHistory int           // max number of summaries kept
	maxAge     time.Duration // optional max age for summaries

	now func() time.Time
}

var _ weather.Store = (*MemoryStore)(nil)

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		maxHistory: maxHistory,
		maxAge:     maxAge,
		now:        time.Now,
	}
}

// SaveSummary appends a summary and enforces retention.
func (s *MemoryStore) SaveSummary(summary weather.RunSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.summaries = append(s.summaries, summary)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(s.summaries) > s.maxHistory {
		over := len(s.summaries) - s.maxHistory
		s.summaries = s.summaries[over:]
	}

	// Enforce retention by age. The newest summary is always kept.
	if s.maxAge > 0 {
		cutoff := s.now().Add(-s.maxAge)
		i := 0
		for ; i < len(s.summaries)-1; i++ {
			if !s.summaries[i].StartedAt.Before(cutoff) {
				break
			}
		}
		s.summaries = s.summaries[i:]
	}
}

// GetLatest returns the most recent summary.
func (s *MemoryStore) GetLatest() (weather.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.summaries) == 0 {
		return weather.RunSummary{}, ErrNotFound
	}
	return s.summaries[len(s.summaries)-1], nil
}

// GetRange returns all summaries of runs started between from and to (inclusive).
func (s *MemoryStore) GetRange(from, to time.Time) ([]weather.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []weather.RunSummary
	for _, sum := range s.summaries {
		if !sum.StartedAt.Before(from) && !sum.StartedAt.After(to) {
			result = append(result, sum)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return result, nil
}
