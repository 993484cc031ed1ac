package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/phambaophuc/meta-shift/internal/config"
)

// StorageService keeps shifted outputs on local disk and finished batch
// results in memory. Nothing leaves the process.
type StorageService struct {
	outputDir     string
	cache         *ResultCache
	cacheDuration time.Duration
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	return NewLocalStorageService(cfg.Storage.OutputDir, cfg.Storage.ResultTTL)
}

func NewLocalStorageService(outputDir string, ttl time.Duration) (*StorageService, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}
	return &StorageService{
		outputDir:     outputDir,
		cache:         NewResultCache(ttl, nil),
		cacheDuration: ttl,
	}, nil
}

func (s *StorageService) OutputDir() string {
	return s.outputDir
}
