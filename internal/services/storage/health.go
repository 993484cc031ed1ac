package storage

import (
	"context"
	"fmt"
	"os"
)

// HealthCheck checks that the output directory is writable.
func (s *StorageService) HealthCheck(ctx context.Context) map[string]string {
	status := make(map[string]string)

	f, err := os.CreateTemp(s.outputDir, ".health-*")
	if err != nil {
		status["output_dir"] = "unhealthy: " + err.Error()
	} else {
		f.Close()
		os.Remove(f.Name())
		status["output_dir"] = "healthy"
	}

	status["result_cache"] = fmt.Sprintf("healthy: %d entries", s.cache.Len())
	return status
}
