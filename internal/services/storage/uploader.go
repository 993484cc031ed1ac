package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/phambaophuc/meta-shift/pkg/utils"
)

var ErrInvalidName = errors.New("invalid file name")

const maxNameAttempts = 5

// SaveFile writes data under filename in the output directory. An existing
// file is never overwritten: a short random suffix is added instead. It
// returns the path written.
func (s *StorageService) SaveFile(ctx context.Context, data []byte, filename string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}

	candidate := name
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		path := filepath.Join(s.outputDir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			candidate = utils.GenerateStorageKey(name)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", candidate, err)
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("failed to write %s: %w", candidate, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close %s: %w", candidate, err)
		}
		return path, nil
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", name, maxNameAttempts)
}

func cleanName(filename string) (string, error) {
	name := filepath.Base(filename)
	if name == "." || name == ".." || name == string(filepath.Separator) || name != filename {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	return name, nil
}
