package utils

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const OutputPrefix = "shifted_"

var extensionTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".heic": "image/heic",
	".mp4":  "video/mp4",
	".m4v":  "video/x-m4v",
	".mov":  "video/quicktime",
	".qt":   "video/quicktime",
	".3gp":  "video/3gpp",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
}

// DetectMIME returns declared when it is specific, otherwise sniffs data and
// falls back to the file extension.
func DetectMIME(name, declared string, data []byte) string {
	if mt := normalizeMIME(declared); mt != "" && mt != "application/octet-stream" {
		return mt
	}
	if len(data) > 0 {
		if mt := normalizeMIME(mimetype.Detect(data).String()); mt != "" && mt != "application/octet-stream" && !strings.HasPrefix(mt, "text/") {
			return mt
		}
	}
	if mt, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return mt
	}
	return "application/octet-stream"
}

func normalizeMIME(mt string) string {
	if mt == "" {
		return ""
	}
	base, _, err := mime.ParseMediaType(mt)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(mt))
	}
	return base
}

// OutputFilename names a shifted file. When the transform changed the
// container, the extension follows the output type.
func OutputFilename(original, outputMIME string) string {
	name := filepath.Base(original)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "file"
	}
	if outputMIME == "image/jpeg" {
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".jpeg" {
			name = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
		}
	}
	return OutputPrefix + name
}

// GenerateStorageKey appends a short random suffix before the extension.
func GenerateStorageKey(filename string) string {
	ext := filepath.Ext(filename)
	name := strings.TrimSuffix(filename, ext)
	return fmt.Sprintf("%s_%s%s", name, uuid.New().String()[:8], ext)
}
