// Package batch owns the per-file state machine of a metadata shift run.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/processor"
	"github.com/phambaophuc/meta-shift/internal/services/randomizer"
	"github.com/phambaophuc/meta-shift/internal/services/video"
	"github.com/phambaophuc/meta-shift/pkg/utils"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrRunInProgress  = errors.New("a run is already in progress")
	ErrFileNotFound   = errors.New("file not found in batch")
	ErrNotTerminal    = errors.New("file has not finished its last run")
	ErrTransformPanic = errors.New("transform panicked")
)

type ImageTransformer interface {
	ProcessImage(data []byte, mimeType string, tmpl models.MetadataTemplate, alterHash bool) (*processor.ImageResult, error)
}

type VideoTransformer interface {
	ProcessVideo(ctx context.Context, data []byte, filename string, tmpl models.MetadataTemplate, alterHash bool) (*video.Result, error)
}

// Templates resolves a batch selection to a concrete template per file.
type Templates interface {
	Resolve(sel models.TemplateSelection, rng randomizer.Source) (models.MetadataTemplate, error)
	Validate(sel models.TemplateSelection) error
}

type Options struct {
	// ImageWorkers above 1 lets images run concurrently. Videos always run
	// one at a time, in list order.
	ImageWorkers int
	Rand         randomizer.Source
	Clock        randomizer.Clock
	Logger       *zap.Logger
}

type Orchestrator struct {
	images    ImageTransformer
	videos    VideoTransformer
	templates Templates
	rng       randomizer.Source
	now       randomizer.Clock
	workers   int
	logger    *zap.Logger

	mu      sync.Mutex
	files   []*models.QueuedFile
	running bool
}

func NewOrchestrator(images ImageTransformer, videos VideoTransformer, templates Templates, opts Options) *Orchestrator {
	if opts.Rand == nil {
		opts.Rand = randomizer.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ImageWorkers < 1 {
		opts.ImageWorkers = 1
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		images:    images,
		videos:    videos,
		templates: templates,
		rng:       opts.Rand,
		now:       opts.Clock,
		workers:   opts.ImageWorkers,
		logger:    logger,
	}
}

// Add queues a file in the idle state and returns a snapshot of it.
func (o *Orchestrator) Add(src models.SourceFile) models.QueuedFile {
	if src.Kind == "" {
		src.Kind = models.KindFromMIME(src.MimeType)
	}
	src.Size = int64(len(src.Data))

	f := &models.QueuedFile{
		ID:       uuid.New().String(),
		Original: src,
		Status:   models.StatusIdle,
	}

	o.mu.Lock()
	o.files = append(o.files, f)
	o.mu.Unlock()
	return *f
}

// AddFile is Add for raw bytes with a declared MIME type.
func (o *Orchestrator) AddFile(name, mimeType string, data []byte) models.QueuedFile {
	return o.Add(models.SourceFile{Name: name, MimeType: mimeType, Data: data})
}

// Remove drops a file from the batch. A file whose transform already started
// finishes, but its result is discarded.
func (o *Orchestrator) Remove(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i, f := range o.files {
		if f.ID == id {
			o.files = append(o.files[:i], o.files[i+1:]...)
			return nil
		}
	}
	return ErrFileNotFound
}

// Clear empties the batch.
func (o *Orchestrator) Clear() {
	o.mu.Lock()
	o.files = nil
	o.mu.Unlock()
}

// Requeue puts a finished file back to idle so the next run picks it up.
func (o *Orchestrator) Requeue(id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	f := o.find(id)
	if f == nil {
		return ErrFileNotFound
	}
	if !f.Status.Terminal() {
		return ErrNotTerminal
	}
	f.Status = models.StatusIdle
	f.Processed = nil
	f.Error = ""
	f.Err = nil
	f.TemplateID = ""
	f.OutputName = ""
	f.OutputMIME = ""
	f.ProcessedAt = time.Time{}
	return nil
}

// Files returns a snapshot of the batch in list order.
func (o *Orchestrator) Files() []models.QueuedFile {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]models.QueuedFile, len(o.files))
	for i, f := range o.files {
		out[i] = *f
	}
	return out
}

func (o *Orchestrator) Get(id string) (models.QueuedFile, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if f := o.find(id); f != nil {
		return *f, true
	}
	return models.QueuedFile{}, false
}

// Outputs returns every file that has processed bytes, for "download all".
func (o *Orchestrator) Outputs() []models.QueuedFile {
	var out []models.QueuedFile
	for _, f := range o.Files() {
		if f.HasOutput() {
			out = append(out, f)
		}
	}
	return out
}

func (o *Orchestrator) find(id string) *models.QueuedFile {
	for _, f := range o.files {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// Report summarizes one run.
type Report struct {
	Selection  string
	AlterHash  bool
	Files      []models.QueuedFile
	Done       int
	Failed     int
	StartedAt  time.Time
	FinishedAt time.Time
}

// HasFailures reports whether any dispatched file ended in error.
func (r *Report) HasFailures() bool {
	return r.Failed > 0
}

type dispatch struct {
	file *models.QueuedFile
	src  models.SourceFile
}

// Run processes every idle file. All of them flip to processing together,
// then each is transformed in list order and settles in done or error
// independently of the others. A fixed selection naming an unknown template
// is rejected before any file changes state.
//
// Once ctx is done, files not yet dispatched settle in error with ctx.Err().
// A transform already started is never cancelled: images ignore ctx and
// videos run under context.WithoutCancel.
func (o *Orchestrator) Run(ctx context.Context, req models.ShiftRequest) (*Report, error) {
	if !req.Selection.IsRandom() {
		if err := o.templates.Validate(req.Selection); err != nil {
			return nil, err
		}
	}

	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return nil, ErrRunInProgress
	}
	var pending []dispatch
	for _, f := range o.files {
		if f.Status != models.StatusIdle {
			continue
		}
		f.Status = models.StatusProcessing
		f.Error = ""
		f.Err = nil
		pending = append(pending, dispatch{file: f, src: f.Original})
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	report := &Report{
		Selection: req.Selection.String(),
		AlterHash: req.AlterHash,
		StartedAt: o.now(),
	}
	o.logger.Info("Batch run started",
		zap.Int("files", len(pending)),
		zap.String("template", report.Selection),
		zap.Bool("alter_hash", req.AlterHash))

	var group errgroup.Group
	group.SetLimit(o.workers)

	for _, d := range pending {
		if !o.present(d.file) {
			continue
		}
		if err := ctx.Err(); err != nil {
			o.settle(d, "", nil, "", err)
			continue
		}
		if d.src.Kind != models.KindImage && d.src.Kind != models.KindVideo {
			o.settle(d, "", nil, "", &models.UnsupportedKindError{MimeType: d.src.MimeType})
			continue
		}

		tmpl, err := o.templates.Resolve(req.Selection, o.rng)
		if err != nil {
			o.settle(d, "", nil, "", err)
			continue
		}

		if d.src.Kind == models.KindImage && o.workers > 1 {
			group.Go(func() error {
				o.runImage(d, tmpl, req.AlterHash)
				return nil
			})
			continue
		}
		if d.src.Kind == models.KindImage {
			o.runImage(d, tmpl, req.AlterHash)
			continue
		}
		// In-flight transforms are not cancelled.
		o.runVideo(context.WithoutCancel(ctx), d, tmpl, req.AlterHash)
	}
	_ = group.Wait()

	report.FinishedAt = o.now()
	for _, d := range pending {
		f, ok := o.Get(d.file.ID)
		if !ok {
			continue
		}
		report.Files = append(report.Files, f)
		switch f.Status {
		case models.StatusDone:
			report.Done++
		case models.StatusError:
			report.Failed++
		}
	}

	o.logger.Info("Batch run finished",
		zap.Int("done", report.Done),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)))

	return report, nil
}

func (o *Orchestrator) runImage(d dispatch, tmpl models.MetadataTemplate, alterHash bool) {
	defer o.recoverFile(d, tmpl.ID)
	res, err := o.images.ProcessImage(d.src.Data, d.src.MimeType, tmpl, alterHash)
	if err != nil {
		o.settle(d, tmpl.ID, nil, "", err)
		return
	}
	o.settle(d, tmpl.ID, res.Data, res.MimeType, nil)
}

func (o *Orchestrator) runVideo(ctx context.Context, d dispatch, tmpl models.MetadataTemplate, alterHash bool) {
	defer o.recoverFile(d, tmpl.ID)
	res, err := o.videos.ProcessVideo(ctx, d.src.Data, d.src.Name, tmpl, alterHash)
	if err != nil {
		o.settle(d, tmpl.ID, nil, "", err)
		return
	}
	o.settle(d, tmpl.ID, res.Data, d.src.MimeType, nil)
}

// recoverFile settles a file whose transform panicked so the rest of the
// batch still runs.
func (o *Orchestrator) recoverFile(d dispatch, templateID string) {
	if r := recover(); r != nil {
		o.settle(d, templateID, nil, "", fmt.Errorf("%w: %v", ErrTransformPanic, r))
	}
}

func (o *Orchestrator) present(f *models.QueuedFile) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.find(f.ID) == f
}

// settle records the terminal state of one dispatched file. Results for
// files removed mid-run are dropped.
func (o *Orchestrator) settle(d dispatch, templateID string, data []byte, outputMIME string, err error) {
	o.mu.Lock()
	f := d.file
	f.TemplateID = templateID
	f.ProcessedAt = o.now()
	if err != nil {
		f.Status = models.StatusError
		f.Err = err
		f.Error = err.Error()
	} else {
		f.Status = models.StatusDone
		f.Processed = data
		f.OutputMIME = outputMIME
		f.OutputName = utils.OutputFilename(d.src.Name, outputMIME)
	}
	snapshot := *f
	o.mu.Unlock()

	fields := []zap.Field{
		zap.String("file_id", snapshot.ID),
		zap.String("name", snapshot.Original.Name),
		zap.String("kind", string(snapshot.Original.Kind)),
		zap.String("template", snapshot.TemplateID),
		zap.String("status", string(snapshot.Status)),
	}
	if err != nil {
		o.logger.Warn("File failed", append(fields, zap.Error(err))...)
		return
	}
	o.logger.Info("File shifted", append(fields, zap.Int("output_size", len(data)))...)
}

func (r *Report) String() string {
	return fmt.Sprintf("%d done, %d failed (template %s, alter_hash %t)", r.Done, r.Failed, r.Selection, r.AlterHash)
}
