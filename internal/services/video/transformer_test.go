package video

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/randomizer"
	"github.com/phambaophuc/meta-shift/internal/services/toolkit"
)

type fakeSession struct {
	calls   int
	input   []byte
	inName  string
	outName string
	args    []string
	output  []byte
	err     error
}

func (f *fakeSession) Run(ctx context.Context, inputName string, input []byte, args []string, outputName string) ([]byte, error) {
	f.calls++
	f.inName, f.outName = inputName, outputName
	f.input = input
	f.args = append([]string(nil), args...)
	return f.output, f.err
}

func (f *fakeSession) Version() string { return "fake" }

type fakeToolkit struct {
	session toolkit.Session
	err     error
}

func (f *fakeToolkit) EnsureLoaded(ctx context.Context) (toolkit.Session, error) {
	return f.session, f.err
}

func mkbox(typ string, payload ...[]byte) []byte {
	var body []byte
	for _, p := range payload {
		body = append(body, p...)
	}
	out := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(out, uint32(8+len(body)))
	copy(out[4:], typ)
	return append(out, body...)
}

// mp4With builds a minimal MP4 whose udta/meta/ilst carries the given atoms.
func mp4With(atoms ...string) []byte {
	var items [][]byte
	for _, a := range atoms {
		items = append(items, mkbox(a, mkbox("data", make([]byte, 8), []byte("v"))))
	}
	meta := mkbox("meta", []byte{0, 0, 0, 0}, mkbox("hdlr", make([]byte, 24)), mkbox("ilst", items...))
	file := mkbox("ftyp", []byte("isom"))
	file = append(file, mkbox("moov", mkbox("udta", meta))...)
	return append(file, mkbox("mdat", []byte("samples"))...)
}

var fixedNow = time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)

func newTestTransformer(tk toolkit.Toolkit) *Transformer {
	gen := randomizer.NewGenerator(randomizer.NewSeeded(4), func() time.Time { return fixedNow })
	return NewTransformer(tk, gen, Options{})
}

func iphone() models.MetadataTemplate {
	return models.MetadataTemplate{
		ID:       "iphone-15-pro",
		Category: models.CategoryMobile,
		Video: &models.VideoFields{
			HandlerName:    "Core Media Video",
			QuickTimeMake:  "Apple",
			QuickTimeModel: "iPhone 15 Pro",
		},
	}
}

func argValue(args []string, flag string) []string {
	var out []string
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag {
			out = append(out, args[i+1])
		}
	}
	return out
}

func TestBuildArgs_PerturbReencodes(t *testing.T) {
	created := time.Date(2024, 5, 1, 8, 9, 10, 0, time.UTC)
	got := BuildArgs("input.mp4", "output.mp4", created, iphone(), true, DefaultEncoding)
	want := []string{
		"-i", "input.mp4",
		"-map_metadata", "-1",
		"-metadata", "creation_time=2024-05-01T08:09:10.000Z",
		"-metadata", "com.apple.quicktime.make=Apple",
		"-metadata", "com.apple.quicktime.model=iPhone 15 Pro",
		"-metadata:s:v:0", "handler_name=Core Media Video",
		"-movflags", "use_metadata_tags",
		"-c:v", "libx264", "-crf", "18", "-preset", "fast",
		"-c:a", "aac", "-b:a", "192k",
		"-y", "output.mp4",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs()\n got %q\nwant %q", got, want)
	}
}

func TestBuildArgs_NoPerturbCopiesStreams(t *testing.T) {
	tmpl := models.MetadataTemplate{ID: "photoshop"}
	got := BuildArgs("input.webm", "output.webm", fixedNow, tmpl, false, Encoding{})
	want := []string{
		"-i", "input.webm",
		"-map_metadata", "-1",
		"-metadata", "creation_time=2024-06-15T10:00:00.000Z",
		"-c", "copy",
		"-y", "output.webm",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("BuildArgs()\n got %q\nwant %q", got, want)
	}
}

func TestBuildArgs_WebMCodecs(t *testing.T) {
	got := BuildArgs("input.webm", "output.webm", fixedNow, models.MetadataTemplate{}, true, Encoding{CRF: 30, AudioBitrate: "128k"})
	if v := argValue(got, "-c:v"); len(v) != 1 || v[0] != "libvpx-vp9" {
		t.Errorf("-c:v = %v", v)
	}
	if v := argValue(got, "-c:a"); len(v) != 1 || v[0] != "libopus" {
		t.Errorf("-c:a = %v", v)
	}
	if v := argValue(got, "-crf"); len(v) != 1 || v[0] != "30" {
		t.Errorf("-crf = %v", v)
	}
}

func TestBuildArgs_AbsentFieldsNotWritten(t *testing.T) {
	tmpl := models.MetadataTemplate{ID: "samsung-s24", Video: &models.VideoFields{Encoder: "samsung"}}
	got := BuildArgs("input.mov", "output.mov", fixedNow, tmpl, false, DefaultEncoding)

	meta := argValue(got, "-metadata")
	if len(meta) != 2 || meta[1] != "encoder=samsung" {
		t.Errorf("-metadata values = %v", meta)
	}
	for _, a := range got {
		if strings.HasSuffix(a, "=") {
			t.Errorf("empty value written: %q", a)
		}
	}
}

func TestExtension(t *testing.T) {
	for name, want := range map[string]string{
		"clip.MP4":  ".mp4",
		"clip.mov":  ".mov",
		"noext":     ".mp4",
		"a.b.webm":  ".webm",
		"trailing.": ".mp4",
	} {
		if got := Extension(name); got != want {
			t.Errorf("Extension(%q) = %q, want %q", name, got, want)
		}
	}
}

func TestProcessVideo_Success(t *testing.T) {
	input := mp4With("\xa9too", "\xa9nam")
	sess := &fakeSession{output: mp4With("\xa9too")}
	tr := newTestTransformer(&fakeToolkit{session: sess})

	res, err := tr.ProcessVideo(context.Background(), input, "Holiday.MOV", iphone(), true)
	if err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}
	if sess.inName != "input.mov" || sess.outName != "output.mov" {
		t.Errorf("names = %q, %q", sess.inName, sess.outName)
	}
	if !bytes.Equal(sess.input, input) {
		t.Error("toolkit did not receive the original bytes")
	}
	if !bytes.Equal(res.Data, sess.output) {
		t.Error("result does not carry toolkit output")
	}
	if res.CreationTime.After(fixedNow) {
		t.Errorf("creation time %v is in the future", res.CreationTime)
	}
	want := "creation_time=" + randomizer.FormatISO(res.CreationTime)
	if v := argValue(sess.args, "-metadata"); len(v) == 0 || v[0] != want {
		t.Errorf("first -metadata = %v, want %q", v, want)
	}
}

func TestProcessVideo_LeakedKeyFails(t *testing.T) {
	sess := &fakeSession{output: mp4With("\xa9too", "\xa9nam")}
	tr := newTestTransformer(&fakeToolkit{session: sess})

	_, err := tr.ProcessVideo(context.Background(), mp4With("\xa9nam"), "a.mp4", iphone(), false)
	var te *models.TranscodeError
	if !errors.As(err, &te) {
		t.Fatalf("err = %v, want TranscodeError", err)
	}
	if !strings.Contains(te.Diagnostic, "title") {
		t.Errorf("diagnostic = %q, want it to name the leaked key", te.Diagnostic)
	}
}

func TestProcessVideo_NonISOSkipsCheck(t *testing.T) {
	sess := &fakeSession{output: []byte("webm bytes")}
	tr := newTestTransformer(&fakeToolkit{session: sess})

	if _, err := tr.ProcessVideo(context.Background(), []byte("in"), "clip.webm", iphone(), false); err != nil {
		t.Fatalf("ProcessVideo: %v", err)
	}
	if v := argValue(sess.args, "-movflags"); len(v) != 0 {
		t.Errorf("webm got movflags %v", v)
	}
}

func TestProcessVideo_Errors(t *testing.T) {
	loadErr := &models.ToolkitLoadError{Err: errors.New("missing wasm")}
	toolErr := &models.TranscodeError{Diagnostic: "invalid input: bad"}

	tests := []struct {
		name   string
		tk     toolkit.Toolkit
		check  func(error) bool
		wantOK string
	}{
		{"load failure passes through", &fakeToolkit{err: loadErr}, func(err error) bool {
			var le *models.ToolkitLoadError
			return errors.As(err, &le)
		}, "ToolkitLoadError"},
		{"toolkit diagnostic kept", &fakeToolkit{session: &fakeSession{err: toolErr}}, func(err error) bool {
			return errors.Is(err, toolErr)
		}, "original TranscodeError"},
		{"plain error wrapped", &fakeToolkit{session: &fakeSession{err: errors.New("exit 1")}}, func(err error) bool {
			var te *models.TranscodeError
			return errors.As(err, &te)
		}, "TranscodeError"},
		{"empty output", &fakeToolkit{session: &fakeSession{}}, func(err error) bool {
			var te *models.TranscodeError
			return errors.As(err, &te) && te.Diagnostic != ""
		}, "TranscodeError with diagnostic"},
		{"unreadable output", &fakeToolkit{session: &fakeSession{output: []byte("junk")}}, func(err error) bool {
			var te *models.TranscodeError
			return errors.As(err, &te)
		}, "TranscodeError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestTransformer(tt.tk).ProcessVideo(context.Background(), mp4With(), "a.mp4", iphone(), true)
			if !tt.check(err) {
				t.Errorf("err = %v, want %s", err, tt.wantOK)
			}
		})
	}
}

func TestAssertedKeys(t *testing.T) {
	got := AssertedKeys(iphone())
	for _, k := range []string{"creation_time", "encoder", "com.apple.quicktime.make", "com.apple.quicktime.model"} {
		if !got[k] {
			t.Errorf("missing %q", k)
		}
	}
	if got["handler_name"] {
		t.Error("handler_name is stream metadata, not a container key")
	}
}
