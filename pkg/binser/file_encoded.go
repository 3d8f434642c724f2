package binser

import (
	"fmt"
	"io"
)

// EncodedFile is an on-disk file whose logical contents pass through a
// reversible encoder. Reads decode the whole file into memory first, so the
// length is only known after the first open. Writes buffer into memory and
// re-encode to disk on Close.
type EncodedFile struct {
	baseFile
	encoder     Encoder
	writeBuffer *memStream
}

// NewEncodedFile builds an encoded file over path using enc.
func NewEncodedFile(ctx *Context, path string, enc Encoder, opts ...FileOption) *EncodedFile {
	f := &EncodedFile{encoder: enc}
	initBaseFile(&f.baseFile, f, ctx, path, opts...)
	return f
}

func (f *EncodedFile) CreateReadStream() (io.ReadSeekCloser, error) {
	raw, err := f.ctx.fm.GetReadStream(f.ctx.AbsoluteFilePath(f.path))
	if err != nil {
		return nil, err
	}
	defer raw.Close()

	decoded, err := f.encoder.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s with %s: %w", f.Alias(), f.encoder.Name(), err)
	}
	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to buffer decoded %s: %w", f.Alias(), err)
	}
	f.setLength(int64(len(data)))
	return newMemStream(data), nil
}

func (f *EncodedFile) CreateWriteStream() (WriteSeekCloser, error) {
	f.writeBuffer = newMemStream(nil)
	return f.writeBuffer, nil
}

// Length is only known after the file has been decoded once.
func (f *EncodedFile) Length() int64 {
	if f.hasLength {
		return f.length
	}
	if f.writer != nil {
		return f.writer.Length()
	}
	return 0
}

// Close commits a pending write buffer by re-encoding it and streaming the
// encoded image to disk, then releases the streams.
func (f *EncodedFile) Close() error {
	commitErr := f.commit()
	if err := f.baseFile.Close(); err != nil && commitErr == nil {
		commitErr = err
	}
	return commitErr
}

func (f *EncodedFile) commit() error {
	if f.writeBuffer == nil || f.writer == nil {
		return nil
	}
	encoded, err := f.encoder.Encode(newMemStream(f.writeBuffer.Bytes()))
	if err != nil {
		return fmt.Errorf("failed to encode %s with %s: %w", f.Alias(), f.encoder.Name(), err)
	}
	out, err := f.ctx.fm.GetWriteStream(f.ctx.AbsoluteFilePath(f.path), true)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, encoded); err != nil {
		return fmt.Errorf("failed to commit encoded %s: %w", f.Alias(), err)
	}
	f.writeBuffer = nil
	return nil
}
