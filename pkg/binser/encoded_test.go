package binser

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evilarceus/go-binserializer/pkg/encoders"
)

func gzipBlock(t *testing.T, payload []byte) []byte {
	t.Helper()
	r, err := encoders.Gzip{}.Encode(newMemStream(payload))
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	return data
}

func counting(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(i)
	}
	return out
}

// Scenario: a body that consumes fewer bytes than the decoded block warns
// and still leaves the outer cursor past the encoded block.
func TestEncodedScopeUnderConsumption(t *testing.T) {
	compressed := gzipBlock(t, counting(32))
	ctx, _, hook := newTestContext(t, map[string][]byte{"packed.bin": compressed})
	f := addLinearFile(t, ctx, "packed.bin")

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	s.DoEncoded(encoders.Gzip{}, func() {
		got := s.Bytes(nil, 30, "payload")
		assert.Equal(t, counting(30), got)
	})
	require.NoError(t, s.Err())

	assert.Equal(t, int64(len(compressed)), s.CurrentPointer().FileOffset())
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "under-consumed")
}

func TestEncodedScopeFullConsumption(t *testing.T) {
	compressed := gzipBlock(t, counting(32))
	ctx, _, hook := newTestContext(t, map[string][]byte{"packed.bin": compressed})
	f := addLinearFile(t, ctx, "packed.bin")

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	s.DoEncoded(encoders.Gzip{}, func() {
		assert.Equal(t, counting(32), s.Bytes(nil, 32, "payload"))
	})
	require.NoError(t, s.Err())
	assert.Nil(t, hook.LastEntry())

	// The transient stream file is deregistered when the scope closes.
	for _, rf := range ctx.Files() {
		assert.False(t, strings.Contains(rf.Key(), "@0x"), "stream file %s leaked", rf.Key())
	}
}

// The write direction fills a scratch stream that is re-encoded and spliced
// at the outer position.
func TestEncodedScopeWriteRoundTrip(t *testing.T) {
	ctx, fs, _ := newTestContext(t, nil)
	out := addLinearFile(t, ctx, "packed.bin")

	s := ctx.Serializer()
	s.Goto(out.StartPointer())
	s.DoEncoded(encoders.Gzip{}, func() {
		s.Bytes(counting(32), 32, "payload")
	})
	require.NoError(t, s.Err())
	require.NoError(t, out.Close())

	raw := readBack(t, fs, "packed.bin")
	rctx, _, _ := newTestContext(t, map[string][]byte{"packed.bin": raw})
	in := addLinearFile(t, rctx, "packed.bin")
	d := rctx.Deserializer()
	d.Goto(in.StartPointer())
	d.DoEncoded(encoders.Gzip{}, func() {
		assert.Equal(t, counting(32), d.Bytes(nil, 32, "payload"))
	})
	require.NoError(t, d.Err())
}

func TestEncodedScopeLocalPointers(t *testing.T) {
	// Decoded block: a u32 pointer value 8 pointing at a u32 inside the
	// same block.
	payload := make([]byte, 12)
	payload[0] = 8
	payload[8] = 0x2A
	packed := gzipBlock(t, payload)

	ctx, _, _ := newTestContext(t, map[string][]byte{"packed.bin": packed})
	f := addLinearFile(t, ctx, "packed.bin")

	s := ctx.Deserializer()
	s.Goto(f.StartPointer())
	s.DoEncoded(encoders.Gzip{}, func() {
		p := s.Pointer(Pointer{}, "local", AllowInvalid())
		require.NoError(t, s.Err())
		require.False(t, p.IsNull())
		var v uint32
		s.DoAt(p, func() { v = s.UInt32(0, "target") })
		assert.Equal(t, uint32(0x2A), v)
		s.Bytes(nil, 8, "rest")
	}, EncodedLocalPointers())
	require.NoError(t, s.Err())
}
