// Package container reads metadata keys out of ISO base media files
// (MP4, MOV, M4V, 3GP) without decoding any media samples.
package container

import (
	"encoding/binary"
	"errors"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrNotISOBMFF = errors.New("not an ISO base media file")
	errTruncated  = errors.New("truncated box")
)

const maxDepth = 8

// ilst / udta atom names mapped to the key names the muxer accepts.
var atomKeyNames = map[string]string{
	"\xa9too": "encoder",
	"\xa9nam": "title",
	"\xa9ART": "artist",
	"\xa9alb": "album",
	"\xa9day": "date",
	"\xa9cmt": "comment",
	"\xa9gen": "genre",
	"\xa9wrt": "composer",
	"\xa9lyr": "lyrics",
	"\xa9xyz": "location",
	"\xa9mak": "make",
	"\xa9mod": "model",
	"\xa9swr": "software",
	"\xa9des": "description",
	"aART":    "album_artist",
	"cprt":    "copyright",
	"desc":    "description",
	"ldes":    "synopsis",
	"tvsh":    "show",
	"tven":    "episode_id",
	"tvnn":    "network",
	"keyw":    "keywords",
	"catg":    "category",
	"purl":    "podcast_url",
	"XMP_":    "xmp",
}

var topLevelTypes = map[string]bool{
	"ftyp": true, "moov": true, "mdat": true, "free": true,
	"skip": true, "wide": true, "pnot": true, "uuid": true,
}

var isoExtensions = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".qt": true, ".3gp": true, ".3g2": true,
}

// IsISOExtension reports whether ext (with dot) names an ISO-BMFF container.
func IsISOExtension(ext string) bool {
	return isoExtensions[strings.ToLower(ext)]
}

// IsISOName reports whether a file name carries an ISO-BMFF extension.
func IsISOName(name string) bool {
	return IsISOExtension(filepath.Ext(name))
}

type box struct {
	typ     string
	payload []byte
}

// ReadMetadataKeys returns the sorted, de-duplicated metadata keys found in
// movie and track user data: iTunes ilst atoms, QuickTime mdta keys, freeform
// atoms and bare udta tags.
func ReadMetadataKeys(data []byte) ([]string, error) {
	top, err := parseBoxes(data)
	if err != nil || len(top) == 0 || !topLevelTypes[top[0].typ] {
		return nil, ErrNotISOBMFF
	}

	keys := map[string]bool{}
	for _, b := range top {
		if b.typ != "moov" {
			continue
		}
		if err := walkMoov(b.payload, keys); err != nil {
			return nil, err
		}
	}

	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func walkMoov(payload []byte, keys map[string]bool) error {
	children, err := parseBoxes(payload)
	if err != nil {
		return err
	}
	for _, c := range children {
		switch c.typ {
		case "udta":
			if err := walkUdta(c.payload, keys, 0); err != nil {
				return err
			}
		case "meta":
			if err := walkMeta(c.payload, keys); err != nil {
				return err
			}
		case "trak":
			trak, err := parseBoxes(c.payload)
			if err != nil {
				return err
			}
			for _, t := range trak {
				if t.typ == "udta" {
					if err := walkUdta(t.payload, keys, 0); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func walkUdta(payload []byte, keys map[string]bool, depth int) error {
	if depth > maxDepth {
		return nil
	}
	children, err := parseBoxes(payload)
	if err != nil {
		return err
	}
	for _, c := range children {
		switch {
		case c.typ == "meta":
			if err := walkMeta(c.payload, keys); err != nil {
				return err
			}
		case atomKeyNames[c.typ] != "":
			keys[atomKeyNames[c.typ]] = true
		case strings.HasPrefix(c.typ, "\xa9"):
			keys[printable(c.typ)] = true
		}
	}
	return nil
}

// walkMeta handles both the full-box (MP4) and plain (QuickTime) meta layouts.
func walkMeta(payload []byte, keys map[string]bool) error {
	if len(payload) >= 4 && binary.BigEndian.Uint32(payload[:4]) == 0 {
		payload = payload[4:]
	}

	children, err := parseBoxes(payload)
	if err != nil {
		return err
	}

	var mdtaKeys []string
	for _, c := range children {
		if c.typ == "keys" {
			mdtaKeys = parseKeys(c.payload)
		}
	}
	for _, c := range children {
		if c.typ != "ilst" {
			continue
		}
		items, err := parseBoxes(c.payload)
		if err != nil {
			return err
		}
		for _, item := range items {
			if k := itemKey(item, mdtaKeys); k != "" {
				keys[k] = true
			}
		}
	}
	return nil
}

func itemKey(item box, mdtaKeys []string) string {
	if item.typ == "----" {
		return parseFreeform(item.payload)
	}
	if len(mdtaKeys) > 0 {
		idx := int(binary.BigEndian.Uint32([]byte(item.typ)))
		if idx >= 1 && idx <= len(mdtaKeys) {
			return mdtaKeys[idx-1]
		}
	}
	if name := atomKeyNames[item.typ]; name != "" {
		return name
	}
	return printable(item.typ)
}

// parseKeys decodes a QuickTime 'keys' full box into its key names.
func parseKeys(payload []byte) []string {
	if len(payload) < 8 {
		return nil
	}
	count := int(binary.BigEndian.Uint32(payload[4:8]))
	var out []string
	pos := 8
	for i := 0; i < count && pos+8 <= len(payload); i++ {
		size := int(binary.BigEndian.Uint32(payload[pos : pos+4]))
		if size < 8 || pos+size > len(payload) {
			break
		}
		out = append(out, string(payload[pos+8:pos+size]))
		pos += size
	}
	return out
}

// parseFreeform returns "mean:name" for a ---- atom.
func parseFreeform(payload []byte) string {
	children, err := parseBoxes(payload)
	if err != nil {
		return ""
	}
	var mean, name string
	for _, c := range children {
		if len(c.payload) < 4 {
			continue
		}
		switch c.typ {
		case "mean":
			mean = string(c.payload[4:])
		case "name":
			name = string(c.payload[4:])
		}
	}
	if name == "" {
		return ""
	}
	if mean == "" {
		return name
	}
	return mean + ":" + name
}

// parseBoxes splits payload into sibling boxes. A size of zero extends the
// box to the end of payload.
func parseBoxes(payload []byte) ([]box, error) {
	var out []box
	pos := 0
	for pos < len(payload) {
		if pos+8 > len(payload) {
			return nil, errTruncated
		}
		size := uint64(binary.BigEndian.Uint32(payload[pos : pos+4]))
		typ := string(payload[pos+4 : pos+8])
		header := uint64(8)

		switch size {
		case 0:
			size = uint64(len(payload) - pos)
		case 1:
			if pos+16 > len(payload) {
				return nil, errTruncated
			}
			size = binary.BigEndian.Uint64(payload[pos+8 : pos+16])
			header = 16
		}
		if size < header || size > uint64(len(payload)-pos) {
			return nil, errTruncated
		}

		out = append(out, box{typ: typ, payload: payload[pos+int(header) : pos+int(size)]})
		pos += int(size)
	}
	return out, nil
}

// printable swaps the Latin-1 copyright byte for its UTF-8 form.
func printable(typ string) string {
	if strings.HasPrefix(typ, "\xa9") {
		return "©" + typ[1:]
	}
	return typ
}
