package binser

import (
	"io"
	"path"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Context is the process-local universe of one serialization task: the
// registered files, the object cache, the memory map, the loggers and the
// encoding defaults. It owns its files and disposes them on Close.
//
// A context is not safe for concurrent serializations.
type Context struct {
	basePath string
	settings Settings
	fm       FileManager
	log      *logrus.Logger
	trace    io.Writer

	files     map[string]BinaryFile
	fileOrder []string
	cache     *ObjectCache
	memoryMap *MemoryMap

	deserializer *Deserializer
	serializer   *Serializer

	disposed bool
}

// ContextOption configures a context at construction time.
type ContextOption func(*Context)

// WithSettings replaces the default settings.
func WithSettings(s Settings) ContextOption {
	return func(c *Context) { c.settings = s }
}

// WithFileManager replaces the OS file manager, e.g. with one over an
// in-memory file system.
func WithFileManager(fm FileManager) ContextOption {
	return func(c *Context) { c.fm = fm }
}

// WithLogger replaces the diagnostic logger.
func WithLogger(log *logrus.Logger) ContextOption {
	return func(c *Context) { c.log = log }
}

// WithTraceWriter directs the field-level serializer trace to w and enables
// it.
func WithTraceWriter(w io.Writer) ContextOption {
	return func(c *Context) {
		c.trace = w
		c.settings.Log = true
	}
}

// NewContext builds a context rooted at basePath.
func NewContext(basePath string, opts ...ContextOption) *Context {
	c := &Context{
		basePath:  basePath,
		settings:  DefaultSettings(),
		files:     make(map[string]BinaryFile),
		cache:     newObjectCache(),
		memoryMap: newMemoryMap(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.fm == nil {
		c.fm = NewOSFileManager()
	}
	if c.log == nil {
		c.log = logrus.New()
	}
	return c
}

// Settings returns the context-wide defaults.
func (c *Context) Settings() Settings { return c.settings }

// FileManager returns the file-system capability the context was built with.
func (c *Context) FileManager() FileManager { return c.fm }

// Logger returns the diagnostic logger.
func (c *Context) Logger() *logrus.Logger { return c.log }

// Cache returns the object cache.
func (c *Context) Cache() *ObjectCache { return c.cache }

// MemoryMap returns the memory-mapped file view.
func (c *Context) MemoryMap() *MemoryMap { return c.memoryMap }

// BasePath returns the directory paths are normalized against.
func (c *Context) BasePath() string { return c.basePath }

// NormalizePath produces the stable registry form of a path: slash
// separated and cleaned. Absolute paths are kept as given.
func (c *Context) NormalizePath(p string) string {
	return path.Clean(filepath.ToSlash(p))
}

// AbsoluteFilePath resolves a normalized path against the context base path.
func (c *Context) AbsoluteFilePath(p string) string {
	if filepath.IsAbs(p) || c.basePath == "" {
		return p
	}
	return path.Join(filepath.ToSlash(c.basePath), p)
}

// AddFile registers a file under its key. Registering a second file under
// the same key fails with ErrDuplicateFile.
func (c *Context) AddFile(f BinaryFile) error {
	if err := c.checkDisposed(); err != nil {
		return err
	}
	key := f.Key()
	if _, exists := c.files[key]; exists {
		return newErrf(ErrDuplicateFile, "%s", key)
	}
	c.files[key] = f
	c.fileOrder = append(c.fileOrder, key)
	c.memoryMap.add(f)
	return nil
}

// RemoveFile deregisters and closes a file.
func (c *Context) RemoveFile(f BinaryFile) error {
	key := f.Key()
	if _, exists := c.files[key]; !exists {
		return newErrf(ErrUnknownFile, "%s", key)
	}
	delete(c.files, key)
	for i, k := range c.fileOrder {
		if k == key {
			c.fileOrder = append(c.fileOrder[:i], c.fileOrder[i+1:]...)
			break
		}
	}
	c.memoryMap.remove(f)
	return f.Close()
}

// File looks a file up by normalized path or alias.
func (c *Context) File(pathOrAlias string) (BinaryFile, error) {
	if f, ok := c.files[pathOrAlias]; ok {
		return f, nil
	}
	if f, ok := c.files[c.NormalizePath(pathOrAlias)]; ok {
		return f, nil
	}
	return nil, newErrf(ErrUnknownFile, "%s", pathOrAlias)
}

// Files returns the registered files in registration order.
func (c *Context) Files() []BinaryFile {
	out := make([]BinaryFile, 0, len(c.fileOrder))
	for _, key := range c.fileOrder {
		out = append(out, c.files[key])
	}
	return out
}

// Deserializer returns the context's reading serializer, creating it on
// first use.
func (c *Context) Deserializer() *Deserializer {
	if c.deserializer == nil {
		c.deserializer = newDeserializer(c)
	}
	return c.deserializer
}

// Serializer returns the context's writing serializer, creating it on first
// use.
func (c *Context) Serializer() *Serializer {
	if c.serializer == nil {
		c.serializer = newSerializer(c)
	}
	return c.serializer
}

// Close disposes every registered file and marks the context disposed.
// Every operation afterwards fails with ErrDisposed.
func (c *Context) Close() error {
	if c.disposed {
		return nil
	}
	var firstErr error
	for _, key := range c.fileOrder {
		if err := c.files[key].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	c.files = make(map[string]BinaryFile)
	c.fileOrder = nil
	c.disposed = true
	return firstErr
}

func (c *Context) checkDisposed() error {
	if c.disposed {
		return ErrDisposed
	}
	return nil
}

// fileSize measures an on-disk file without opening a reader.
func (c *Context) fileSize(p string) (int64, error) {
	type statFs interface{ Fs() afero.Fs }
	if sfm, ok := c.fm.(*fsFileManager); ok {
		info, err := sfm.fs.Stat(c.AbsoluteFilePath(p))
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	}
	if sfm, ok := c.fm.(statFs); ok {
		info, err := sfm.Fs().Stat(c.AbsoluteFilePath(p))
		if err != nil {
			return 0, err
		}
		return info.Size(), nil
	}
	s, err := c.fm.GetReadStream(c.AbsoluteFilePath(p))
	if err != nil {
		return 0, err
	}
	defer s.Close()
	return s.Seek(0, io.SeekEnd)
}

func (c *Context) traceEnabled() bool {
	return c.settings.Log && c.trace != nil
}
