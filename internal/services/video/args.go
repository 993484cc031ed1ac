// Package video rewrites container metadata through the codec toolkit.
package video

import (
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/phambaophuc/meta-shift/internal/models"
	"github.com/phambaophuc/meta-shift/internal/services/container"
	"github.com/phambaophuc/meta-shift/internal/services/randomizer"
)

const defaultExtension = ".mp4"

// Encoding is the fixed quality target used when streams are re-encoded.
type Encoding struct {
	CRF          int
	Preset       string
	AudioBitrate string
}

// DefaultEncoding matches the x264/aac settings of the perturbing path.
var DefaultEncoding = Encoding{CRF: 18, Preset: "fast", AudioBitrate: "192k"}

// Extension returns the lower-cased extension of name, or ".mp4" when it
// has none.
func Extension(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" || ext == "." {
		return defaultExtension
	}
	return ext
}

// BuildArgs constructs the toolkit argument list for one file. Existing
// metadata is dropped, the creation time and every present template field
// are injected, then streams are either re-encoded or copied.
func BuildArgs(inputName, outputName string, created time.Time, tmpl models.MetadataTemplate, alterHash bool, enc Encoding) []string {
	args := make([]string, 0, 32)

	// --- Input and strip ---
	args = append(args,
		"-i", inputName,
		"-map_metadata", "-1",
		"-metadata", models.KeyCreationTime+"="+randomizer.FormatISO(created),
	)

	// --- Template fields ---
	for _, tag := range tmpl.Video.FormatTags() {
		args = append(args, "-metadata", tag.Key+"="+tag.Value)
	}
	if tmpl.Video != nil && tmpl.Video.HandlerName != "" {
		args = append(args, "-metadata:s:v:0", models.KeyHandlerName+"="+tmpl.Video.HandlerName)
	}

	ext := Extension(outputName)
	if container.IsISOExtension(ext) {
		args = append(args, "-movflags", "use_metadata_tags")
	}

	// --- Streams ---
	if alterHash {
		args = appendCodecs(args, ext, enc)
	} else {
		args = append(args, "-c", "copy")
	}

	return append(args, "-y", outputName)
}

func appendCodecs(args []string, ext string, enc Encoding) []string {
	if enc.CRF <= 0 {
		enc.CRF = DefaultEncoding.CRF
	}
	if enc.Preset == "" {
		enc.Preset = DefaultEncoding.Preset
	}
	if enc.AudioBitrate == "" {
		enc.AudioBitrate = DefaultEncoding.AudioBitrate
	}
	crf := strconv.Itoa(enc.CRF)

	if ext == ".webm" {
		return append(args,
			"-c:v", "libvpx-vp9", "-crf", crf, "-b:v", "0",
			"-c:a", "libopus", "-b:a", enc.AudioBitrate,
		)
	}
	return append(args,
		"-c:v", "libx264", "-crf", crf, "-preset", enc.Preset,
		"-c:a", "aac", "-b:a", enc.AudioBitrate,
	)
}
