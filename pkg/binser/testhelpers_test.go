package binser

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// newTestContext builds a context over an in-memory file system pre-seeded
// with the given files. The returned hook captures diagnostic log entries.
func newTestContext(t *testing.T, files map[string][]byte, opts ...ContextOption) (*Context, afero.Fs, *logtest.Hook) {
	t.Helper()
	fs := afero.NewMemMapFs()
	for p, data := range files {
		require.NoError(t, afero.WriteFile(fs, p, data, 0o644))
	}
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	opts = append([]ContextOption{
		WithFileManager(NewFileManager(fs)),
		WithLogger(logger),
	}, opts...)
	ctx := NewContext("", opts...)
	t.Cleanup(func() { _ = ctx.Close() })
	return ctx, fs, hook
}

// addLinearFile registers a linear file over path and returns it.
func addLinearFile(t *testing.T, ctx *Context, path string, opts ...FileOption) *LinearFile {
	t.Helper()
	f := NewLinearFile(ctx, path, opts...)
	require.NoError(t, ctx.AddFile(f))
	return f
}

// readBack opens a second context over the same file system so committed
// output can be read with a fresh reader.
func readBack(t *testing.T, fs afero.Fs, path string) []byte {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return data
}
