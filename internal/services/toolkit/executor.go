package toolkit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/phambaophuc/meta-shift/internal/models"
	"go.uber.org/zap"
)

var (
	errNilSession  = errors.New("loader returned no session")
	errEmptyOutput = errors.New("toolkit produced no output")
)

// FFmpegOptions configures the ffmpeg-backed session.
type FFmpegOptions struct {
	Binary  string
	WorkDir string
	Logger  *zap.Logger
}

// FFmpegLoader resolves the ffmpeg binary and checks that it runs.
func FFmpegLoader(opts FFmpegOptions) LoadFunc {
	return func(ctx context.Context) (Session, error) {
		binary := opts.Binary
		if binary == "" {
			binary = "ffmpeg"
		}
		path, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("ffmpeg not found: %w", err)
		}

		out, err := exec.CommandContext(ctx, path, "-hide_banner", "-version").Output()
		if err != nil {
			return nil, fmt.Errorf("ffmpeg -version failed: %w", err)
		}

		logger := opts.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		return &ffmpegSession{
			path:    path,
			version: parseVersion(string(out)),
			workDir: opts.WorkDir,
			logger:  logger,
		}, nil
	}
}

func parseVersion(out string) string {
	first, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(first)
	if len(fields) >= 3 && fields[0] == "ffmpeg" && fields[1] == "version" {
		return fields[2]
	}
	return "unknown"
}

type ffmpegSession struct {
	path    string
	version string
	workDir string
	logger  *zap.Logger
}

func (s *ffmpegSession) Version() string { return s.version }

// Run writes input into a private scratch directory, executes ffmpeg there
// and reads back outputName. The scratch directory is always removed.
func (s *ffmpegSession) Run(ctx context.Context, inputName string, input []byte, args []string, outputName string) ([]byte, error) {
	if err := checkName(inputName); err != nil {
		return nil, err
	}
	if err := checkName(outputName); err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp(s.workDir, "metashift-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	if err := os.WriteFile(filepath.Join(dir, inputName), input, 0o600); err != nil {
		return nil, fmt.Errorf("failed to stage input: %w", err)
	}

	full := make([]string, 0, len(args)+4)
	full = append(full, "-hide_banner", "-nostdin", "-loglevel", "error")
	full = append(full, args...)

	cmd := exec.CommandContext(ctx, s.path, full...)
	cmd.Dir = dir
	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	s.logger.Debug("Running ffmpeg", zap.Strings("args", full))
	runErr := cmd.Run()
	stderr := stderrBuf.String()
	if runErr != nil {
		return nil, &models.TranscodeError{Diagnostic: Diagnose(stderr), Err: runErr}
	}

	out, err := os.ReadFile(filepath.Join(dir, outputName))
	if err != nil || len(out) == 0 {
		if err == nil {
			err = errEmptyOutput
		}
		return nil, &models.TranscodeError{Diagnostic: Diagnose(stderr), Err: err}
	}
	return out, nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return fmt.Errorf("invalid toolkit file name %q", name)
	}
	return nil
}
