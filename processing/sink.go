package processing

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink receives a rendered export. Prepare is called once, before the first
// Write, with the download filename and MIME type.
type Sink interface {
	io.Writer
	Prepare(filename, contentType string)
	// Started reports whether any bytes have been committed to the destination.
	Started() bool
}

// BufferSink accumulates an export in memory.
type BufferSink struct {
	bytes.Buffer
	Filename    string
	ContentType string
}

func (b *BufferSink) Prepare(filename, contentType string) {
	b.Filename = filename
	b.ContentType = contentType
}

func (b *BufferSink) Started() bool { return b.Len() > 0 }

// FileSink writes an export into a directory under the prepared filename.
// The file is created on the first Write.
type FileSink struct {
	Dir  string
	Path string

	file *os.File
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

func (f *FileSink) Prepare(filename, _ string) {
	f.Path = filepath.Join(f.Dir, filename)
}

func (f *FileSink) Write(p []byte) (int, error) {
	if f.file == nil {
		if f.Path == "" {
			return 0, fmt.Errorf("file sink written before Prepare")
		}
		if err := os.MkdirAll(f.Dir, 0o755); err != nil {
			return 0, fmt.Errorf("failed to create output directory %s: %w", f.Dir, err)
		}
		file, err := os.Create(f.Path)
		if err != nil {
			return 0, fmt.Errorf("failed to create output file %s: %w", f.Path, err)
		}
		f.file = file
	}
	return f.file.Write(p)
}

func (f *FileSink) Started() bool { return f.file != nil }

func (f *FileSink) Close() error {
	if f.file == nil {
		return nil
	}
	return f.file.Close()
}
