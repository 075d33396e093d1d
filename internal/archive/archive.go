// Package archive extracts release bundles uploaded as zip files.
//
// A bundle holds one CSV manifest, any number of WAV files whose stems
// are ISRC codes, and optionally a cover image. Classification looks at
// the base filename only so exports wrapped in a folder (UPC folders are
// common) behave the same as flat archives.
package archive

import (
	"errors"
	"path"
	"strings"
)

// ErrInvalidArchive indicates the payload is not a readable zip file.
var ErrInvalidArchive = errors.New("invalid zip archive")

// Kind classifies an archive member.
type Kind int

const (
	// KindSkip marks directories and members of no interest.
	KindSkip Kind = iota
	// KindManifest is the CSV manifest.
	KindManifest
	// KindAudio is a WAV file keyed by its uppercased stem.
	KindAudio
	// KindCover is a release cover image.
	KindCover
)

// Contents is the transient result of extracting one bundle. It lives
// only for the duration of a single ingest job.
type Contents struct {
	// Manifest holds the raw CSV text, or nil when the archive had none.
	Manifest []byte
	// Audio maps uppercased ISRC stems to raw WAV bytes.
	Audio map[string][]byte
	// Cover holds the first cover image found, with its extension
	// recorded as "jpg" or "png".
	Cover    []byte
	CoverExt string
}

// HasManifest reports whether the archive contained a CSV manifest.
func (c *Contents) HasManifest() bool {
	return c != nil && c.Manifest != nil
}

// CoverContentType returns the MIME type matching CoverExt.
func (c *Contents) CoverContentType() string {
	if c.CoverExt == "png" {
		return "image/png"
	}
	return "image/jpeg"
}

// classify inspects a member name and returns its kind plus, for audio,
// the uppercased ISRC key and, for covers, the target extension.
func classify(name string) (kind Kind, key, ext string) {
	if strings.HasSuffix(name, "/") {
		return KindSkip, "", ""
	}
	base := path.Base(strings.ToLower(name))
	switch {
	case base == "" || base == ".":
		return KindSkip, "", ""
	case strings.HasSuffix(base, ".csv"):
		return KindManifest, "", ""
	case strings.HasSuffix(base, ".wav"):
		return KindAudio, strings.ToUpper(strings.TrimSuffix(base, ".wav")), ""
	case strings.HasSuffix(base, ".png"):
		return KindCover, "", "png"
	case strings.HasSuffix(base, ".jpg"), strings.HasSuffix(base, ".jpeg"):
		return KindCover, "", "jpg"
	default:
		return KindSkip, "", ""
	}
}
