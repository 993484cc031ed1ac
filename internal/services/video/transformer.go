package video

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/container"
	"github.com/phambaophuc/meta-shift/internal/services/randomizer"
	"github.com/phambaophuc/meta-shift/internal/services/toolkit"
	"go.uber.org/zap"
)

// Options configures a Transformer. Zero values fall back to defaults.
type Options struct {
	MaxDaysBack int
	Encoding    Encoding
	Logger      *zap.Logger
}

type Transformer struct {
	toolkit toolkit.Toolkit
	gen     *randomizer.Generator
	opts    Options
	logger  *zap.Logger
}

// Result is a finished video transform.
type Result struct {
	Data         []byte
	Extension    string
	CreationTime time.Time
	TemplateID   string
	Args         []string
}

func NewTransformer(tk toolkit.Toolkit, gen *randomizer.Generator, opts Options) *Transformer {
	if gen == nil {
		gen = randomizer.NewGenerator(nil, nil)
	}
	if opts.MaxDaysBack == 0 {
		opts.MaxDaysBack = randomizer.DefaultMaxDaysBack
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transformer{toolkit: tk, gen: gen, opts: opts, logger: logger}
}

// ProcessVideo strips the container metadata of data, injects a fresh
// creation time plus the template fields and returns the new container.
// The input slice is never modified.
func (t *Transformer) ProcessVideo(ctx context.Context, data []byte, filename string, tmpl models.MetadataTemplate, alterHash bool) (*Result, error) {
	session, err := t.toolkit.EnsureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	ext := Extension(filename)
	inputName := "input" + ext
	outputName := "output" + ext
	created := t.gen.RecentTimestamp(t.opts.MaxDaysBack)
	args := BuildArgs(inputName, outputName, created, tmpl, alterHash, t.opts.Encoding)

	out, err := session.Run(ctx, inputName, data, args, outputName)
	if err != nil {
		var te *models.TranscodeError
		if errors.As(err, &te) {
			return nil, err
		}
		return nil, &models.TranscodeError{Err: err}
	}
	if len(out) == 0 {
		return nil, &models.TranscodeError{Diagnostic: "no output produced"}
	}

	if container.IsISOExtension(ext) {
		if err := t.verifyStripped(data, out, tmpl); err != nil {
			return nil, err
		}
	}

	t.logger.Debug("Video metadata shifted",
		zap.String("file", filename),
		zap.String("template", tmpl.ID),
		zap.Bool("alter_hash", alterHash),
		zap.Int("output_size", len(out)),
	)

	return &Result{
		Data:         out,
		Extension:    ext,
		CreationTime: created,
		TemplateID:   tmpl.ID,
		Args:         args,
	}, nil
}

// verifyStripped fails when a metadata key of the input is still present in
// the output without the transform having written it.
func (t *Transformer) verifyStripped(input, output []byte, tmpl models.MetadataTemplate) error {
	inKeys, err := container.ReadMetadataKeys(input)
	if err != nil {
		t.logger.Debug("Skipping metadata check, input not readable", zap.Error(err))
		return nil
	}
	outKeys, err := container.ReadMetadataKeys(output)
	if err != nil {
		return &models.TranscodeError{Diagnostic: "output container unreadable", Err: err}
	}

	asserted := AssertedKeys(tmpl)
	before := make(map[string]bool, len(inKeys))
	for _, k := range inKeys {
		before[k] = true
	}

	var leaked []string
	for _, k := range outKeys {
		if before[k] && !asserted[k] {
			leaked = append(leaked, k)
		}
	}
	if len(leaked) > 0 {
		sort.Strings(leaked)
		return &models.TranscodeError{Diagnostic: "metadata survived strip: " + strings.Join(leaked, ", ")}
	}
	return nil
}

// AssertedKeys lists the container keys the transform writes for tmpl,
// including the encoder tag the muxer always stamps.
func AssertedKeys(tmpl models.MetadataTemplate) map[string]bool {
	keys := map[string]bool{
		models.KeyCreationTime: true,
		models.KeyEncoder:      true,
	}
	for _, tag := range tmpl.Video.FormatTags() {
		keys[tag.Key] = true
	}
	return keys
}
