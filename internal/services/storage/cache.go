package storage

import (
	"context"
	"sync"
	"time"

	"github.com/phambaophuc/meta-shift/internal/models"
)

type cacheEntry struct {
	job       *models.ProcessingJob
	expiresAt time.Time
}

// ResultCache keeps finished jobs, with their output bytes, until they
// expire.
type ResultCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

func NewResultCache(ttl time.Duration, now func() time.Time) *ResultCache {
	if now == nil {
		now = time.Now
	}
	return &ResultCache{ttl: ttl, now: now, entries: make(map[string]cacheEntry)}
}

func (c *ResultCache) Get(id string) (*models.ProcessingJob, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[id]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	return e.job, true
}

// Set stores job. The expiry restarts on every Set.
func (c *ResultCache) Set(job *models.ProcessingJob) {
	c.mu.Lock()
	c.entries[job.ID] = cacheEntry{job: job, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *ResultCache) Delete(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
}

// Cleanup drops expired entries and returns how many were removed.
func (c *ResultCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// GetFromCache returns nil, nil on a miss.
func (s *StorageService) GetFromCache(ctx context.Context, jobID string) (*models.ProcessingJob, error) {
	if job, ok := s.cache.Get(jobID); ok {
		return job, nil
	}
	return nil, nil
}

func (s *StorageService) SetCache(ctx context.Context, job *models.ProcessingJob) error {
	s.cache.Set(job)
	return nil
}

func (s *StorageService) DeleteFromCache(ctx context.Context, jobID string) {
	s.cache.Delete(jobID)
}

func (s *StorageService) CleanupCache(ctx context.Context) int {
	return s.cache.Cleanup()
}

func (s *StorageService) GetCacheStats(ctx context.Context) map[string]interface{} {
	return map[string]interface{}{
		"entries": s.cache.Len(),
		"ttl":     s.cacheDuration.String(),
	}
}
