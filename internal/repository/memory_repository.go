package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"plantscan-service/internal/domain/scan"
)

// MemoryScanRepository keeps scan history in process memory. It is used
// when no database is configured.
type MemoryScanRepository struct {
	mu    sync.RWMutex
	scans map[uuid.UUID]scan.Scan
}

func NewMemoryScanRepository() *MemoryScanRepository {
	return &MemoryScanRepository{
		scans: make(map[uuid.UUID]scan.Scan),
	}
}

func (r *MemoryScanRepository) Save(ctx context.Context, s *scan.Scan) error {
	r.mu.Lock()
	r.scans[s.ID] = *s
	r.mu.Unlock()
	return nil
}

func (r *MemoryScanRepository) Get(ctx context.Context, id uuid.UUID) (*scan.Scan, error) {
	r.mu.RLock()
	s, ok := r.scans[id]
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return &s, nil
}

func (r *MemoryScanRepository) List(ctx context.Context, limit, offset int) ([]scan.Scan, error) {
	r.mu.RLock()
	all := make([]scan.Scan, 0, len(r.scans))
	for _, s := range r.scans {
		all = append(all, s)
	}
	r.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID.String() < all[j].ID.String()
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if offset >= len(all) {
		return []scan.Scan{}, nil
	}
	all = all[max(offset, 0):]
	if limit > 0 {
		all = all[:min(limit, maxListLimit, len(all))]
	}
	return all, nil
}

func (r *MemoryScanRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.scans[id]; !ok {
		return ErrNotFound
	}
	delete(r.scans, id)
	return nil
}

func (r *MemoryScanRepository) DeleteOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days)

	r.mu.Lock()
	defer r.mu.Unlock()

	var deleted int64
	for id, s := range r.scans {
		if s.CreatedAt.Before(cutoff) {
			delete(r.scans, id)
			deleted++
		}
	}
	return deleted, nil
}

func (r *MemoryScanRepository) Stats(ctx context.Context) (*scan.Stats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &scan.Stats{ByDiagnosis: map[string]int64{}}
	for _, s := range r.scans {
		stats.Total++
		if s.Result.IsHealthy {
			stats.Healthy++
		} else {
			stats.Unhealthy++
		}
		stats.ByDiagnosis[s.Result.DiagnosisLabel]++
	}
	return stats, nil
}
