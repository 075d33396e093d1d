package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"path"
	"strings"
)

// ExtractAll reads the whole bundle eagerly and returns its contents.
// The first manifest and the first cover win; later ones are ignored.
func ExtractAll(data []byte) (*Contents, error) {
	scanner, err := NewScanner(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return scanner.Collect()
}

// Entry is one relevant archive member. Its bytes are read on demand so
// streaming callers hold at most one decompressed file at a time.
type Entry struct {
	Kind Kind
	// Name is the member's base filename, lowercased.
	Name string
	// Key is the uppercased ISRC stem for audio entries.
	Key string
	// Ext is "jpg" or "png" for cover entries.
	Ext string

	file *zip.File
}

// Open returns a reader over the member's decompressed bytes.
func (e *Entry) Open() (io.ReadCloser, error) {
	return e.file.Open()
}

// Bytes reads the member fully.
func (e *Entry) Bytes() ([]byte, error) {
	rc, err := e.file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", e.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	return data, nil
}

// Scanner iterates the relevant members of a zip bundle in archive
// order, skipping directories and unclassified files.
type Scanner struct {
	files []*zip.File
	index int
	entry *Entry
}

// NewScanner opens a bundle for streaming extraction.
func NewScanner(r io.ReaderAt, size int64) (*Scanner, error) {
	reader, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	return &Scanner{files: reader.File}, nil
}

// Scan advances to the next relevant member. It returns false when the
// archive is exhausted.
func (s *Scanner) Scan() bool {
	for s.index < len(s.files) {
		file := s.files[s.index]
		s.index++

		// Empty files still classify; only directory entries and
		// unrecognized names are skipped.
		kind, key, ext := classify(file.Name)
		if kind == KindSkip {
			continue
		}
		s.entry = &Entry{
			Kind: kind,
			Name: path.Base(strings.ToLower(file.Name)),
			Key:  key,
			Ext:  ext,
			file: file,
		}
		return true
	}
	s.entry = nil
	return false
}

// Entry returns the member selected by the last successful Scan.
func (s *Scanner) Entry() *Entry {
	return s.entry
}

// Collect drains the scanner into a Contents value.
func (s *Scanner) Collect() (*Contents, error) {
	contents := &Contents{Audio: make(map[string][]byte)}
	for s.Scan() {
		entry := s.Entry()
		switch entry.Kind {
		case KindManifest:
			if contents.Manifest != nil {
				continue
			}
			data, err := entry.Bytes()
			if err != nil {
				return nil, err
			}
			contents.Manifest = data
		case KindAudio:
			data, err := entry.Bytes()
			if err != nil {
				return nil, err
			}
			contents.Audio[entry.Key] = data
		case KindCover:
			if contents.Cover != nil {
				continue
			}
			data, err := entry.Bytes()
			if err != nil {
				return nil, err
			}
			contents.Cover = data
			contents.CoverExt = entry.Ext
		}
	}
	return contents, nil
}
