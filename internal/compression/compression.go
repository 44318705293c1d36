// Package compression reads and writes palette documents that may be
// compressed, choosing the codec from the file extension.
package compression

import (
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/jmylchreest/tincture/internal/security"
)

// DefaultMaxBytes bounds decompressed palette documents.
const DefaultMaxBytes = 1 << 20

// Format is a stream compression format.
type Format string

const (
	// FormatNone is an uncompressed stream.
	FormatNone Format = "none"
	// FormatGzip is a .gz stream.
	FormatGzip Format = "gzip"
	// FormatXz is a .xz stream.
	FormatXz Format = "xz"
	// FormatBzip2 is a .bz2 stream (read only).
	FormatBzip2 Format = "bzip2"
)

// DetectFormat picks a format from a file name's extension.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz":
		return FormatGzip
	case ".xz":
		return FormatXz
	case ".bz2":
		return FormatBzip2
	default:
		return FormatNone
	}
}

// NewReader wraps r with the decompressor for name and caps the decompressed
// size at maxBytes (DefaultMaxBytes when zero).
func NewReader(name string, r io.Reader, maxBytes int64) (io.Reader, error) {
	if maxBytes == 0 {
		maxBytes = DefaultMaxBytes
	}

	var dr io.Reader
	switch DetectFormat(name) {
	case FormatGzip:
		gzr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		dr = gzr
	case FormatXz:
		xzr, err := xz.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		dr = xzr
	case FormatBzip2:
		dr = bzip2.NewReader(r)
	default:
		dr = r
	}

	return security.NewLimitedReader(dr, maxBytes), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// NewWriter wraps w with the compressor for name. Close must be called to
// flush compressed output; it does not close w.
func NewWriter(name string, w io.Writer) (io.WriteCloser, error) {
	switch DetectFormat(name) {
	case FormatGzip:
		return gzip.NewWriter(w), nil
	case FormatXz:
		xzw, err := xz.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xzw, nil
	case FormatBzip2:
		return nil, fmt.Errorf("writing bzip2 is not supported: %s", name)
	default:
		return nopWriteCloser{w}, nil
	}
}

// ReadFile reads and decompresses a palette document.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path) // #nosec G304 - User-specified palette path, intended to be read
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r, err := NewReader(path, f, 0)
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// WriteFile compresses data according to path's extension and writes it.
func WriteFile(path string, data []byte) error {
	var buf bytes.Buffer
	w, err := NewWriter(path, &buf)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to compress %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 - Palette files are meant to be shared
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
