package models

import (
	"sort"
	"strconv"
)

type Category string

const (
	CategoryMobile   Category = "mobile"
	CategoryCamera   Category = "camera"
	CategorySoftware Category = "software"
)

// Valid reports whether c is one of the known template categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryMobile, CategoryCamera, CategorySoftware:
		return true
	}
	return false
}

// MetadataTemplate is a named bundle of device or software provenance.
// Templates are defined once at startup and never mutated.
type MetadataTemplate struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    Category     `json:"category"`
	Image       ImageFields  `json:"image"`
	Video       *VideoFields `json:"video,omitempty"`
}

// HasVideo reports whether the template carries video container guidance.
func (t MetadataTemplate) HasVideo() bool {
	return t.Video != nil
}

// ImageFields holds EXIF-style tags. Nil fields are absent and are never
// written or defaulted.
type ImageFields struct {
	Make         *string           `json:"Make,omitempty"`
	Model        *string           `json:"Model,omitempty"`
	Software     *string           `json:"Software,omitempty"`
	Artist       *string           `json:"Artist,omitempty"`
	Copyright    *string           `json:"Copyright,omitempty"`
	ColorSpace   *int              `json:"ColorSpace,omitempty"`
	WhiteBalance *int              `json:"WhiteBalance,omitempty"`
	Extra        map[string]string `json:"extra,omitempty"`
}

// Tag is a single present tag with its textual value.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Tags returns the present tags in a stable order: named fields first, then
// extension keys sorted by name.
func (f ImageFields) Tags() []Tag {
	var tags []Tag
	str := func(key string, v *string) {
		if v != nil {
			tags = append(tags, Tag{Key: key, Value: *v})
		}
	}
	num := func(key string, v *int) {
		if v != nil {
			tags = append(tags, Tag{Key: key, Value: strconv.Itoa(*v)})
		}
	}

	str("Make", f.Make)
	str("Model", f.Model)
	str("Software", f.Software)
	str("Artist", f.Artist)
	str("Copyright", f.Copyright)
	num("ColorSpace", f.ColorSpace)
	num("WhiteBalance", f.WhiteBalance)

	return append(tags, sortedTags(f.Extra)...)
}

// Container metadata keys written by the video path.
const (
	KeyCreationTime      = "creation_time"
	KeyEncoder           = "encoder"
	KeyHandlerName       = "handler_name"
	KeyQuickTimeMake     = "com.apple.quicktime.make"
	KeyQuickTimeModel    = "com.apple.quicktime.model"
	KeyQuickTimeSoftware = "com.apple.quicktime.software"
)

// VideoFields holds container metadata guidance. Empty strings are absent.
type VideoFields struct {
	Encoder           string            `json:"encoder,omitempty"`
	HandlerName       string            `json:"handler_name,omitempty"`
	QuickTimeMake     string            `json:"com.apple.quicktime.make,omitempty"`
	QuickTimeModel    string            `json:"com.apple.quicktime.model,omitempty"`
	QuickTimeSoftware string            `json:"com.apple.quicktime.software,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// FormatTags returns the container-level key/value pairs present on the
// template, in write order. Stream-level keys (handler_name) are excluded.
func (v *VideoFields) FormatTags() []Tag {
	if v == nil {
		return nil
	}
	var tags []Tag
	add := func(key, value string) {
		if value != "" {
			tags = append(tags, Tag{Key: key, Value: value})
		}
	}

	add(KeyEncoder, v.Encoder)
	add(KeyQuickTimeMake, v.QuickTimeMake)
	add(KeyQuickTimeModel, v.QuickTimeModel)
	add(KeyQuickTimeSoftware, v.QuickTimeSoftware)

	for _, t := range sortedTags(v.Extra) {
		add(t.Key, t.Value)
	}
	return tags
}

func sortedTags(m map[string]string) []Tag {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tags := make([]Tag, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, Tag{Key: k, Value: m[k]})
	}
	return tags
}

// RandomTemplate is the selection sentinel that draws a template per file.
const RandomTemplate = "random"

// TemplateSelection is either a fixed template id or the random sentinel.
type TemplateSelection struct {
	TemplateID string `json:"template"`
}

// NewSelection normalizes an empty value to the random sentinel.
func NewSelection(id string) TemplateSelection {
	if id == "" {
		id = RandomTemplate
	}
	return TemplateSelection{TemplateID: id}
}

func (s TemplateSelection) IsRandom() bool {
	return s.TemplateID == "" || s.TemplateID == RandomTemplate
}

func (s TemplateSelection) String() string {
	if s.IsRandom() {
		return RandomTemplate
	}
	return s.TemplateID
}
