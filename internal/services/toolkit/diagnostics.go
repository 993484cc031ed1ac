package toolkit

import (
	"regexp"
	"strings"
)

// Pre-compiled patterns for summarizing ffmpeg stderr. Checked in order; the
// first match names the failure class.
var diagnosticPatterns = []struct {
	class string
	re    *regexp.Regexp
}{
	{"invalid input", regexp.MustCompile(
		`(?i)Invalid data found when processing input|moov atom not found|` +
			`could not find codec parameters|EBML header parsing failed`)},
	{"unknown encoder", regexp.MustCompile(
		`(?i)Unknown encoder|Encoder .* not found|Error while opening encoder`)},
	{"unsupported in container", regexp.MustCompile(
		`(?i)Could not find tag for codec|codec not currently supported in container|` +
			`Only VP8 or VP9 or AV1 video and Vorbis or Opus audio`)},
	{"no streams", regexp.MustCompile(
		`(?i)Output file .* does not contain any stream|Stream map .* matches no streams`)},
	{"permission denied", regexp.MustCompile(`(?i)Permission denied`)},
}

// Diagnose condenses stderr into "<class>: <last line>", or just the last
// non-empty line when no class matches.
func Diagnose(stderr string) string {
	last := lastLine(stderr)
	if last == "" {
		return ""
	}
	for _, p := range diagnosticPatterns {
		if p.re.MatchString(stderr) {
			return p.class + ": " + last
		}
	}
	return last
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
