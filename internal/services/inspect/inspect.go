// Package inspect reports the provenance metadata carried by a media file,
// so a shift can be checked before and after.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"strings"

	"github.com/dhowden/tag"
	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/container"
	"github.com/phambaophuc/meta-shift/pkg/utils"
	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrEmpty = errors.New("empty file")

const (
	SourceEXIF      = "EXIF"
	SourceContainer = "container"
)

type Field struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

type Report struct {
	Name          string           `json:"name"`
	MimeType      string           `json:"mime_type"`
	Kind          models.MediaKind `json:"kind"`
	Size          int64            `json:"size"`
	Format        string           `json:"format,omitempty"`
	Width         int              `json:"width,omitempty"`
	Height        int              `json:"height,omitempty"`
	ContainerKeys []string         `json:"container_keys,omitempty"`
	Fields        []Field          `json:"fields,omitempty"`
}

// Inspect reads what it can from data. Missing or unreadable metadata is
// not an error; an undecodable image is.
func Inspect(name string, data []byte) (*Report, error) {
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	mt := utils.DetectMIME(name, "", data)
	r := &Report{
		Name:     name,
		MimeType: mt,
		Kind:     models.KindFromMIME(mt),
		Size:     int64(len(data)),
	}

	switch r.Kind {
	case models.KindImage:
		if err := inspectImage(r, data); err != nil {
			return nil, err
		}
	case models.KindVideo:
		inspectVideo(r, data)
	}
	return r, nil
}

func inspectImage(r *Report, data []byte) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return &models.DecodeError{Err: err}
	}
	r.Format = format
	r.Width, r.Height = cfg.Width, cfg.Height

	x, err := exif.Decode(bytes.NewReader(data))
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		return nil
	}
	w := &exifWalker{}
	_ = x.Walk(w)
	sort.Slice(w.fields, func(i, j int) bool { return w.fields[i].Key < w.fields[j].Key })
	r.Fields = append(r.Fields, w.fields...)
	return nil
}

type exifWalker struct {
	fields []Field
}

func (w *exifWalker) Walk(name exif.FieldName, t *tiff.Tag) error {
	val := t.String()
	if len(val) >= 2 && val[0] == '"' && val[len(val)-1] == '"' {
		val = val[1 : len(val)-1]
	}
	w.fields = append(w.fields, Field{Key: string(name), Value: val, Source: SourceEXIF})
	return nil
}

func inspectVideo(r *Report, data []byte) {
	if keys, err := container.ReadMetadataKeys(data); err == nil {
		r.ContainerKeys = keys
	}

	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return
	}
	if ft := m.FileType(); ft != tag.UnknownFileType {
		r.Format = string(ft)
	}
	src := string(m.Format())
	if src == "" {
		src = SourceContainer
	}
	add := func(k, v string) {
		if v != "" {
			r.Fields = append(r.Fields, Field{Key: k, Value: v, Source: src})
		}
	}
	add("Title", m.Title())
	add("Artist", m.Artist())
	add("Album", m.Album())
	add("Composer", m.Composer())
	add("Genre", m.Genre())
	add("Comment", m.Comment())
	if m.Year() > 0 {
		add("Year", fmt.Sprint(m.Year()))
	}
}

// Summary renders a report as aligned "key: value" lines.
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %d bytes)\n", r.Name, r.MimeType, r.Size)
	if r.Width > 0 {
		fmt.Fprintf(&b, "  dimensions: %dx%d %s\n", r.Width, r.Height, r.Format)
	} else if r.Format != "" {
		fmt.Fprintf(&b, "  format: %s\n", r.Format)
	}
	if len(r.ContainerKeys) > 0 {
		fmt.Fprintf(&b, "  container keys: %s\n", strings.Join(r.ContainerKeys, ", "))
	}
	for _, f := range r.Fields {
		fmt.Fprintf(&b, "  [%s] %s: %s\n", f.Source, f.Key, f.Value)
	}
	if len(r.ContainerKeys) == 0 && len(r.Fields) == 0 {
		b.WriteString("  no metadata found\n")
	}
	return b.String()
}
