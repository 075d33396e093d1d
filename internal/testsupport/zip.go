package testsupport

import (
	"archive/zip"
	"bytes"
	"testing"
)

// ZipBuilder assembles in-memory zip archives for tests.
type ZipBuilder struct {
	t   testing.TB
	buf bytes.Buffer
	w   *zip.Writer
}

// NewZipBuilder returns an empty archive builder.
func NewZipBuilder(t testing.TB) *ZipBuilder {
	t.Helper()
	b := &ZipBuilder{t: t}
	b.w = zip.NewWriter(&b.buf)
	return b
}

// AddFile appends an entry with the given name and contents.
func (b *ZipBuilder) AddFile(name string, contents []byte) *ZipBuilder {
	b.t.Helper()

	f, err := b.w.Create(name)
	if err != nil {
		b.t.Fatalf("zip create %s: %v", name, err)
	}
	if _, err := f.Write(contents); err != nil {
		b.t.Fatalf("zip write %s: %v", name, err)
	}
	return b
}

// AddDir appends an explicit directory entry.
func (b *ZipBuilder) AddDir(name string) *ZipBuilder {
	b.t.Helper()

	if name == "" || name[len(name)-1] != '/' {
		name += "/"
	}
	if _, err := b.w.Create(name); err != nil {
		b.t.Fatalf("zip create dir %s: %v", name, err)
	}
	return b
}

// Bytes finalizes the archive and returns its raw contents.
func (b *ZipBuilder) Bytes() []byte {
	b.t.Helper()

	if err := b.w.Close(); err != nil {
		b.t.Fatalf("zip close: %v", err)
	}
	return b.buf.Bytes()
}
