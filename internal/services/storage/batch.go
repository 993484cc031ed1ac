package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/phambaophuc/meta-shift/internal/models"
	"golang.org/x/sync/errgroup"
)

const saveWorkers = 5

// SaveOutputs writes every file that carries processed bytes and returns
// the written paths in the same order. Files without output are skipped.
func (s *StorageService) SaveOutputs(ctx context.Context, files []models.QueuedFile) ([]string, error) {
	var todo []models.QueuedFile
	for _, f := range files {
		if f.HasOutput() {
			todo = append(todo, f)
		}
	}
	if len(todo) == 0 {
		return []string{}, nil
	}

	paths := make([]string, len(todo))
	errs := make([]error, len(todo))

	var g errgroup.Group
	g.SetLimit(saveWorkers)
	for i, f := range todo {
		g.Go(func() error {
			paths[i], errs[i] = s.SaveFile(ctx, f.Processed, f.OutputName)
			return nil
		})
	}
	_ = g.Wait()

	var failedSaves []string
	saved := make([]string, 0, len(todo))
	for i, err := range errs {
		if err != nil {
			failedSaves = append(failedSaves, fmt.Sprintf("%s: %v", todo[i].OutputName, err))
		} else {
			saved = append(saved, paths[i])
		}
	}

	if len(failedSaves) > 0 {
		return saved, fmt.Errorf("failed to save %d files: %s",
			len(failedSaves), strings.Join(failedSaves, "; "))
	}
	return saved, nil
}
