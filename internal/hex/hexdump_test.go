package hex

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpFormatsLines(t *testing.T) {
	data := make([]byte, 20)
	for i := range data {
		data[i] = byte(0x41 + i)
	}

	var out bytes.Buffer
	require.NoError(t, Dump(&out, data, 0x100))

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "00000100  41 42 43"))
	assert.Contains(t, lines[0], "|ABCDEFGHIJKLMNOP|")
	assert.True(t, strings.HasPrefix(lines[1], "00000110  51 52 53 54"))
	assert.Contains(t, lines[1], "|QRST|")
}

func TestDumpNonPrintable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Dump(&out, []byte{0x00, 0x1F, 0x7F, 'a'}, 0))
	assert.Contains(t, out.String(), "|...a|")
}

func TestDumpEmpty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Dump(&out, nil, 0))
	assert.Empty(t, out.String())
}
