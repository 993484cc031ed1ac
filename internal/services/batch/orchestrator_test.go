package batch

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/processor"
	"github.com/phambaophuc/meta-shift/internal/services/randomizer"
	"github.com/phambaophuc/meta-shift/internal/services/templates"
	"github.com/phambaophuc/meta-shift/internal/services/toolkit"
	"github.com/phambaophuc/meta-shift/internal/services/video"
)

type fakeImages struct {
	mu    sync.Mutex
	seen  []string
	block chan struct{}
	err   error
}

func (f *fakeImages) ProcessImage(data []byte, mimeType string, tmpl models.MetadataTemplate, alterHash bool) (*processor.ImageResult, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	f.seen = append(f.seen, tmpl.ID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &processor.ImageResult{Data: append([]byte("img:"), data...), MimeType: "image/jpeg", TemplateID: tmpl.ID}, nil
}

type fakeVideos struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	calls   atomic.Int32
	err     error
}

func (f *fakeVideos) ProcessVideo(ctx context.Context, data []byte, filename string, tmpl models.MetadataTemplate, alterHash bool) (*video.Result, error) {
	f.calls.Add(1)
	n := f.active.Add(1)
	defer f.active.Add(-1)
	if n > f.maxSeen.Load() {
		f.maxSeen.Store(n)
	}
	time.Sleep(time.Millisecond)
	if f.err != nil {
		return nil, f.err
	}
	return &video.Result{Data: append([]byte("vid:"), data...), TemplateID: tmpl.ID}, nil
}

func newTestOrchestrator(images ImageTransformer, videos VideoTransformer, workers int) *Orchestrator {
	return NewOrchestrator(images, videos, templates.Default(), Options{
		ImageWorkers: workers,
		Rand:         randomizer.NewSeeded(21),
	})
}

func fixed(id string, alter bool) models.ShiftRequest {
	return models.ShiftRequest{Selection: models.NewSelection(id), AlterHash: alter}
}

func assertNoneProcessing(t *testing.T, o *Orchestrator) {
	t.Helper()
	for _, f := range o.Files() {
		if !f.Status.Terminal() && f.Status != models.StatusIdle {
			t.Errorf("file %s left in %s", f.Original.Name, f.Status)
		}
	}
}

func TestRun_UnsupportedKindIsIsolated(t *testing.T) {
	images, videos := &fakeImages{}, &fakeVideos{}
	o := newTestOrchestrator(images, videos, 1)
	o.AddFile("a.jpg", "image/jpeg", []byte("a"))
	o.AddFile("b.pdf", "application/pdf", []byte("b"))
	o.AddFile("c.mp4", "video/mp4", []byte("c"))

	report, err := o.Run(context.Background(), fixed("pixel-8", true))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := o.Files()
	if files[0].Status != models.StatusDone || files[2].Status != models.StatusDone {
		t.Errorf("statuses = %s, %s; want done, done", files[0].Status, files[2].Status)
	}
	var unsupported *models.UnsupportedKindError
	if files[1].Status != models.StatusError || !errors.As(files[1].Err, &unsupported) {
		t.Errorf("file 2 = %s / %v, want error with UnsupportedKindError", files[1].Status, files[1].Err)
	}
	if files[1].TemplateID != "" {
		t.Errorf("unsupported file drew template %q", files[1].TemplateID)
	}
	if report.Done != 2 || report.Failed != 1 || !report.HasFailures() {
		t.Errorf("report = %+v", report)
	}
	if len(images.seen) != 1 || videos.calls.Load() != 1 {
		t.Errorf("transform calls: images %d, videos %d", len(images.seen), videos.calls.Load())
	}
	assertNoneProcessing(t, o)
}

func TestRun_FixedTemplateAppliesToEveryFile(t *testing.T) {
	images, videos := &fakeImages{}, &fakeVideos{}
	o := newTestOrchestrator(images, videos, 1)
	for _, in := range []struct{ name, mime string }{
		{"1.png", "image/png"},
		{"2.jpg", "image/jpeg"},
		{"3.mov", "video/quicktime"},
		{"4.webp", "image/webp"},
		{"5.mp4", "video/mp4"},
	} {
		o.AddFile(in.name, in.mime, []byte(in.name))
	}

	if _, err := o.Run(context.Background(), fixed("canon-r5", false)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, f := range o.Files() {
		if f.Status != models.StatusDone || f.TemplateID != "canon-r5" {
			t.Errorf("%s: status %s template %q", f.Original.Name, f.Status, f.TemplateID)
		}
	}
}

func TestRun_RandomSelectionDrawsPerFile(t *testing.T) {
	run := func() []string {
		o := newTestOrchestrator(&fakeImages{}, &fakeVideos{}, 1)
		for i := 0; i < 12; i++ {
			o.AddFile("x.png", "image/png", []byte{byte(i)})
		}
		if _, err := o.Run(context.Background(), fixed("", true)); err != nil {
			t.Fatalf("Run: %v", err)
		}
		var ids []string
		for _, f := range o.Files() {
			ids = append(ids, f.TemplateID)
		}
		return ids
	}

	a, b := run(), run()
	distinct := map[string]bool{}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("file %d: %q vs %q with the same seed", i, a[i], b[i])
		}
		distinct[a[i]] = true
	}
	if len(distinct) < 2 {
		t.Errorf("random selection used only %v", distinct)
	}
}

func TestRun_ToolkitLoadFailureSparesImages(t *testing.T) {
	var loads atomic.Int32
	loader := toolkit.NewLoader(func(ctx context.Context) (toolkit.Session, error) {
		loads.Add(1)
		return nil, errors.New("ffmpeg not found")
	}, nil)
	videos := video.NewTransformer(loader, nil, video.Options{})

	o := newTestOrchestrator(&fakeImages{}, videos, 1)
	o.AddFile("first.mp4", "video/mp4", []byte("v1"))
	o.AddFile("photo.png", "image/png", []byte("p"))
	o.AddFile("second.mov", "video/quicktime", []byte("v2"))

	report, err := o.Run(context.Background(), fixed("", true))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := o.Files()
	for _, i := range []int{0, 2} {
		var loadErr *models.ToolkitLoadError
		if files[i].Status != models.StatusError || !errors.As(files[i].Err, &loadErr) {
			t.Errorf("%s: %s / %v, want ToolkitLoadError", files[i].Original.Name, files[i].Status, files[i].Err)
		}
	}
	if files[1].Status != models.StatusDone {
		t.Errorf("image: %s / %v, want done", files[1].Status, files[1].Err)
	}
	if loads.Load() != 1 {
		t.Errorf("toolkit load attempted %d times, want 1", loads.Load())
	}
	if report.Done != 1 || report.Failed != 2 {
		t.Errorf("report = %s", report)
	}
}

func TestRun_OnlyIdleFilesAndRequeue(t *testing.T) {
	images := &fakeImages{}
	o := newTestOrchestrator(images, &fakeVideos{}, 1)
	a := o.AddFile("a.png", "image/png", []byte("a"))

	if _, err := o.Run(context.Background(), fixed("pixel-8", true)); err != nil {
		t.Fatal(err)
	}
	o.AddFile("b.png", "image/png", []byte("b"))
	report, err := o.Run(context.Background(), fixed("pixel-8", true))
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Files) != 1 || report.Files[0].Original.Name != "b.png" {
		t.Errorf("second run dispatched %d files", len(report.Files))
	}
	if len(images.seen) != 2 {
		t.Errorf("image transform called %d times, want 2", len(images.seen))
	}

	if err := o.Requeue(a.ID); err != nil {
		t.Fatalf("Requeue: %v", err)
	}
	got, _ := o.Get(a.ID)
	if got.Status != models.StatusIdle || got.Processed != nil || got.OutputName != "" {
		t.Errorf("requeued file = %+v", got)
	}
	if err := o.Requeue(a.ID); !errors.Is(err, ErrNotTerminal) {
		t.Errorf("Requeue(idle) = %v, want ErrNotTerminal", err)
	}
	if err := o.Requeue("nope"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Requeue(missing) = %v, want ErrFileNotFound", err)
	}
}

func TestRun_UnknownFixedTemplateRejectedUpFront(t *testing.T) {
	o := newTestOrchestrator(&fakeImages{}, &fakeVideos{}, 1)
	o.AddFile("a.png", "image/png", []byte("a"))

	if _, err := o.Run(context.Background(), fixed("nokia-3310", true)); !errors.Is(err, models.ErrTemplateNotFound) {
		t.Fatalf("err = %v, want ErrTemplateNotFound", err)
	}
	if got := o.Files()[0].Status; got != models.StatusIdle {
		t.Errorf("status = %s, want idle", got)
	}
}

func TestRun_RemovePreventsDispatch(t *testing.T) {
	images := &fakeImages{block: make(chan struct{})}
	o := newTestOrchestrator(images, &fakeVideos{}, 1)
	o.AddFile("first.png", "image/png", []byte("1"))
	second := o.AddFile("second.png", "image/png", []byte("2"))

	done := make(chan *Report, 1)
	go func() {
		report, _ := o.Run(context.Background(), fixed("canva", true))
		done <- report
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		files := o.Files()
		if len(files) == 2 && files[1].Status == models.StatusProcessing {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("run never started")
		}
		time.Sleep(time.Millisecond)
	}
	if err := o.Remove(second.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	close(images.block)
	report := <-done

	if len(images.seen) != 1 {
		t.Errorf("image transform called %d times, want 1", len(images.seen))
	}
	if len(report.Files) != 1 || len(o.Files()) != 1 {
		t.Errorf("report files %d, batch files %d", len(report.Files), len(o.Files()))
	}
	if _, err := o.Run(context.Background(), fixed("canva", true)); err != nil {
		t.Errorf("run after completion: %v", err)
	}
}

func TestRun_RejectsConcurrentRun(t *testing.T) {
	images := &fakeImages{block: make(chan struct{})}
	o := newTestOrchestrator(images, &fakeVideos{}, 1)
	o.AddFile("a.png", "image/png", []byte("a"))

	go func() { _, _ = o.Run(context.Background(), fixed("canva", true)) }()
	for o.Files()[0].Status != models.StatusProcessing {
		time.Sleep(time.Millisecond)
	}
	if _, err := o.Run(context.Background(), fixed("canva", true)); !errors.Is(err, ErrRunInProgress) {
		t.Errorf("err = %v, want ErrRunInProgress", err)
	}
	close(images.block)
}

func TestRun_CancelledContextFailsUndispatchedFiles(t *testing.T) {
	o := newTestOrchestrator(&fakeImages{}, &fakeVideos{}, 1)
	o.AddFile("a.png", "image/png", []byte("a"))
	o.AddFile("b.mp4", "video/mp4", []byte("b"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := o.Run(ctx, fixed("", true))
	if err != nil {
		t.Fatal(err)
	}
	for _, f := range report.Files {
		if f.Status != models.StatusError || !errors.Is(f.Err, context.Canceled) {
			t.Errorf("%s: %s / %v", f.Original.Name, f.Status, f.Err)
		}
	}
}

func TestRun_ParallelImagesSerialVideos(t *testing.T) {
	images, videos := &fakeImages{}, &fakeVideos{}
	o := newTestOrchestrator(images, videos, 4)
	for i := 0; i < 8; i++ {
		o.AddFile("p.png", "image/png", []byte{byte(i)})
		o.AddFile("v.mp4", "video/mp4", []byte{byte(i)})
	}

	report, err := o.Run(context.Background(), fixed("", false))
	if err != nil {
		t.Fatal(err)
	}
	if report.Done != 16 {
		t.Errorf("done = %d, want 16", report.Done)
	}
	if videos.maxSeen.Load() != 1 {
		t.Errorf("max concurrent video transforms = %d", videos.maxSeen.Load())
	}
	assertNoneProcessing(t, o)
}

func TestOutputs_OnlyFilesWithOutput(t *testing.T) {
	o := newTestOrchestrator(&fakeImages{}, &fakeVideos{err: errors.New("boom")}, 1)
	o.AddFile("photo.webp", "image/webp", []byte("a"))
	o.AddFile("clip.mp4", "video/mp4", []byte("b"))
	if _, err := o.Run(context.Background(), fixed("capcut", true)); err != nil {
		t.Fatal(err)
	}

	outputs := o.Outputs()
	if len(outputs) != 1 {
		t.Fatalf("outputs = %d, want 1", len(outputs))
	}
	if outputs[0].OutputName != "shifted_photo.jpg" || outputs[0].OutputMIME != "image/jpeg" {
		t.Errorf("output = %q (%s)", outputs[0].OutputName, outputs[0].OutputMIME)
	}

	o.Clear()
	if len(o.Files()) != 0 || len(o.Outputs()) != 0 {
		t.Error("Clear left files behind")
	}
}

func TestRun_RealImagePathKeepsInputIntact(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, 3, 3))); err != nil {
		t.Fatal(err)
	}
	input := buf.Bytes()
	pristine := append([]byte(nil), input...)

	o := NewOrchestrator(processor.NewImageProcessor(randomizer.NewSeeded(1)), &fakeVideos{}, templates.Default(), Options{})
	o.AddFile("tiny.png", "image/png", input)
	report, err := o.Run(context.Background(), fixed("photoshop", true))
	if err != nil {
		t.Fatal(err)
	}
	if report.Done != 1 {
		t.Fatalf("report = %s, err %v", report, report.Files[0].Err)
	}
	if !bytes.Equal(input, pristine) {
		t.Error("input bytes were mutated")
	}
	if f := report.Files[0]; f.OutputMIME != "image/png" || f.OutputName != "shifted_tiny.png" {
		t.Errorf("output = %q (%s)", f.OutputName, f.OutputMIME)
	}
}

type panickingVideos struct{}

func (panickingVideos) ProcessVideo(ctx context.Context, data []byte, filename string, tmpl models.MetadataTemplate, alterHash bool) (*video.Result, error) {
	panic("slice bounds out of range")
}

func TestRun_PanickingTransformFailsOnlyThatFile(t *testing.T) {
	images := &fakeImages{}
	o := newTestOrchestrator(images, panickingVideos{}, 2)
	o.AddFile("a.jpg", "image/jpeg", []byte("a"))
	o.AddFile("b.mp4", "video/mp4", []byte("b"))
	o.AddFile("c.jpg", "image/jpeg", []byte("c"))

	report, err := o.Run(context.Background(), fixed("canon-r5", false))
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := o.Files()
	if files[1].Status != models.StatusError || !errors.Is(files[1].Err, ErrTransformPanic) {
		t.Errorf("video = %s / %v, want error wrapping ErrTransformPanic", files[1].Status, files[1].Err)
	}
	if files[0].Status != models.StatusDone || files[2].Status != models.StatusDone {
		t.Errorf("siblings = %s, %s; want done, done", files[0].Status, files[2].Status)
	}
	if report.Done != 2 || report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	assertNoneProcessing(t, o)
}
