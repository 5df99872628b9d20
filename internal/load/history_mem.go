package load

import (
	"context"
	"sync"
)

type MemHistoryRepo struct {
	mu      sync.RWMutex
	history map[string][]WeeklyLoadRecord
}

func NewMemHistoryRepo() *MemHistoryRepo {
	return &MemHistoryRepo{
		history: make(map[string][]WeeklyLoadRecord),
	}
}

func (r *MemHistoryRepo) Push(_ context.Context, athleteID string, rec WeeklyLoadRecord, limit int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h := append([]WeeklyLoadRecord{rec}, r.history[athleteID]...)
	if limit > 0 && len(h) > limit {
		h = h[:limit]
	}
	r.history[athleteID] = h
	return nil
}

func (r *MemHistoryRepo) List(_ context.Context, athleteID string) ([]WeeklyLoadRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]WeeklyLoadRecord, len(r.history[athleteID]))
	copy(out, r.history[athleteID])
	return out, nil
}
