// Package fqio opens possibly-compressed read files for a single streaming
// pass. Compression is detected from a fixed-width magic-byte prefix only;
// file extensions are never consulted.
package fqio

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/krolaw/zipstream"
)

// Compression identifies the detected stream compression.
type Compression int

// Supported compression formats. Plain is the fallback when no signature
// matches.
const (
	Plain Compression = iota
	Gzip
	Bzip2
	Zip
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Bzip2:
		return "bzip2"
	case Zip:
		return "zip"
	default:
		return "plain"
	}
}

// Binary signatures checked in order against the start of the file.
var magics = []struct {
	sig []byte
	c   Compression
}{
	{[]byte{0x1f, 0x8b, 0x08}, Gzip},
	{[]byte{0x42, 0x5a, 0x68}, Bzip2},
	{[]byte{0x50, 0x4b, 0x03, 0x04}, Zip},
}

// Detect reads the first bytes of path and matches them against the known
// signatures. An unmatched prefix (including an empty file) is Plain.
func Detect(path string) (Compression, error) {
	f, err := os.Open(path) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return Plain, fmt.Errorf("cannot open input: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	prefix := make([]byte, 4)
	n, err := io.ReadFull(f, prefix)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return Plain, fmt.Errorf("cannot inspect input: %w", err)
	}
	prefix = prefix[:n]

	for _, m := range magics {
		if bytes.HasPrefix(prefix, m.sig) {
			return m.c, nil
		}
	}
	return Plain, nil
}

// Open detects the compression of path and returns a reader over the
// decoded stream. The caller must Close it on all exit paths.
func Open(path string) (io.ReadCloser, error) {
	comp, err := Detect(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path) //nolint:gosec // CLI tool needs to open user-specified files
	if err != nil {
		return nil, fmt.Errorf("cannot open input: %w", err)
	}

	switch comp {
	case Gzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cannot open gzip input: %w", err)
		}
		return &readCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil
	case Bzip2:
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("cannot open bzip2 input: %w", err)
		}
		return &readCloser{Reader: bz, closers: []io.Closer{bz, f}}, nil
	case Zip:
		return &readCloser{Reader: newZipReader(f), closers: []io.Closer{f}}, nil
	default:
		return f, nil
	}
}

// readCloser pairs a decoded stream with every underlying resource that
// must be released with it.
type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// zipReader streams the archive entries in order as one concatenated text
// stream, which is what a reads-in-a-zip input means for QC purposes.
type zipReader struct {
	zs      *zipstream.Reader
	started bool
	done    bool
}

func newZipReader(r io.Reader) *zipReader {
	return &zipReader{zs: zipstream.NewReader(r)}
}

func (z *zipReader) Read(p []byte) (int, error) {
	if z.done {
		return 0, io.EOF
	}
	if !z.started {
		if err := z.advance(); err != nil {
			return 0, err
		}
		z.started = true
	}

	n, err := z.zs.Read(p)
	if errors.Is(err, io.EOF) {
		if aerr := z.advance(); aerr != nil {
			if errors.Is(aerr, io.EOF) {
				z.done = true
				return n, io.EOF
			}
			return n, aerr
		}
		if n > 0 {
			return n, nil
		}
		return z.Read(p)
	}
	return n, err
}

func (z *zipReader) advance() error {
	_, err := z.zs.Next()
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("reading zip entry: %w", err)
	}
	return err
}
