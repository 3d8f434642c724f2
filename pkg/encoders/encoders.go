// Package encoders provides reversible stream Encoder implementations for
// encoded files and encoded scopes: gzip, zlib and zstd via
// klauspost/compress, snappy and lz4.
package encoders

import (
	"bytes"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Gzip is a gzip stream encoder.
type Gzip struct{}

func (Gzip) Name() string { return "gzip" }

func (Gzip) Decode(src io.Reader) (io.Reader, error) {
	r, err := gzip.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("gzip decode: %w", err)
	}
	return r, nil
}

func (Gzip) Encode(src io.Reader) (io.Reader, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := io.Copy(w, src); err != nil {
		return nil, fmt.Errorf("gzip encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("gzip encode: %w", err)
	}
	return &buf, nil
}

// Zlib is a zlib stream encoder.
type Zlib struct{}

func (Zlib) Name() string { return "zlib" }

func (Zlib) Decode(src io.Reader) (io.Reader, error) {
	r, err := zlib.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("zlib decode: %w", err)
	}
	return r, nil
}

func (Zlib) Encode(src io.Reader) (io.Reader, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := io.Copy(w, src); err != nil {
		return nil, fmt.Errorf("zlib encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib encode: %w", err)
	}
	return &buf, nil
}

// Zstd is a zstandard stream encoder.
type Zstd struct{}

func (Zstd) Name() string { return "zstd" }

func (Zstd) Decode(src io.Reader) (io.Reader, error) {
	d, err := zstd.NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return d.IOReadCloser(), nil
}

func (Zstd) Encode(src io.Reader) (io.Reader, error) {
	var buf bytes.Buffer
	w, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("zstd encode: %w", err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return nil, fmt.Errorf("zstd encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zstd encode: %w", err)
	}
	return &buf, nil
}

// Snappy is a snappy framed-stream encoder.
type Snappy struct{}

func (Snappy) Name() string { return "snappy" }

func (Snappy) Decode(src io.Reader) (io.Reader, error) {
	return snappy.NewReader(src), nil
}

func (Snappy) Encode(src io.Reader) (io.Reader, error) {
	var buf bytes.Buffer
	w := snappy.NewBufferedWriter(&buf)
	if _, err := io.Copy(w, src); err != nil {
		return nil, fmt.Errorf("snappy encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("snappy encode: %w", err)
	}
	return &buf, nil
}

// LZ4 is an lz4 frame encoder.
type LZ4 struct{}

func (LZ4) Name() string { return "lz4" }

func (LZ4) Decode(src io.Reader) (io.Reader, error) {
	return lz4.NewReader(src), nil
}

func (LZ4) Encode(src io.Reader) (io.Reader, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := io.Copy(w, src); err != nil {
		return nil, fmt.Errorf("lz4 encode: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("lz4 encode: %w", err)
	}
	return &buf, nil
}

// ByName maps a codec name to its encoder.
func ByName(name string) (Encoder, error) {
	switch name {
	case "gzip":
		return Gzip{}, nil
	case "zlib":
		return Zlib{}, nil
	case "zstd":
		return Zstd{}, nil
	case "snappy":
		return Snappy{}, nil
	case "lz4":
		return LZ4{}, nil
	}
	return nil, fmt.Errorf("unknown encoder %q", name)
}

// Encoder re-exports the core contract so callers of ByName need only this
// package.
type Encoder interface {
	Name() string
	Decode(src io.Reader) (io.Reader, error)
	Encode(src io.Reader) (io.Reader, error)
}
