package telegram

import "sync"

// thresholdStore keeps the per-chat detection threshold in memory.
type thresholdStore struct {
	mu       sync.RWMutex
	fallback float64
	values   map[int64]float64
}

func newThresholdStore(fallback float64) *thresholdStore {
	return &thresholdStore{
		fallback: fallback,
		values:   make(map[int64]float64),
	}
}

func (s *thresholdStore) Get(chatID int64) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if v, ok := s.values[chatID]; ok {
		return v
	}
	return s.fallback
}

func (s *thresholdStore) Set(chatID int64, v float64) {
	s.mu.Lock()
	s.values[chatID] = v
	s.mu.Unlock()
}
