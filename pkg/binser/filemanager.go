package binser

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"

	"github.com/spf13/afero"
)

// WriteSeekCloser is the stream contract for file writers.
type WriteSeekCloser interface {
	io.Writer
	io.Seeker
	io.Closer
}

// FileManager abstracts file-system access so the core can run over the OS
// file system, an in-memory file system in tests, or anything else that
// satisfies afero.Fs.
type FileManager interface {
	DirectoryExists(path string) (bool, error)
	FileExists(path string) (bool, error)
	GetReadStream(path string) (io.ReadSeekCloser, error)
	GetWriteStream(path string, recreate bool) (WriteSeekCloser, error)

	// CopyFile duplicates src to dst, used for pre-write backups.
	CopyFile(src, dst string) error

	// FillCacheForRead hints that up to length bytes are about to be read
	// through r. Implementations may prefetch; the default is a no-op.
	FillCacheForRead(ctx context.Context, length int64, r io.Reader) error
}

type fsFileManager struct {
	fs afero.Fs
}

// NewFileManager wraps an afero file system as a FileManager.
func NewFileManager(fs afero.Fs) FileManager {
	return &fsFileManager{fs: fs}
}

// NewOSFileManager returns a FileManager over the host file system.
func NewOSFileManager() FileManager {
	return NewFileManager(afero.NewOsFs())
}

func (m *fsFileManager) DirectoryExists(p string) (bool, error) {
	return afero.DirExists(m.fs, p)
}

func (m *fsFileManager) FileExists(p string) (bool, error) {
	return afero.Exists(m.fs, p)
}

func (m *fsFileManager) GetReadStream(p string) (io.ReadSeekCloser, error) {
	f, err := m.fs.Open(p)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for reading: %w", p, err)
	}
	return f, nil
}

func (m *fsFileManager) GetWriteStream(p string, recreate bool) (WriteSeekCloser, error) {
	if dir := path.Dir(p); dir != "." && dir != "/" {
		if err := m.fs.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	flags := os.O_RDWR | os.O_CREATE
	if recreate {
		flags |= os.O_TRUNC
	}
	f, err := m.fs.OpenFile(p, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s for writing: %w", p, err)
	}
	return f, nil
}

func (m *fsFileManager) CopyFile(src, dst string) error {
	in, err := m.fs.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open backup source %s: %w", src, err)
	}
	defer in.Close()

	out, err := m.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create backup %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy %s to %s: %w", src, dst, err)
	}
	return nil
}

func (m *fsFileManager) FillCacheForRead(_ context.Context, _ int64, _ io.Reader) error {
	return nil
}
