package encoders

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, enc Encoder, payload []byte) {
	t.Helper()
	encoded, err := enc.Encode(bytes.NewReader(payload))
	require.NoError(t, err)
	encodedBytes, err := io.ReadAll(encoded)
	require.NoError(t, err)

	decoded, err := enc.Decode(bytes.NewReader(encodedBytes))
	require.NoError(t, err)
	decodedBytes, err := io.ReadAll(decoded)
	require.NoError(t, err)

	assert.Equal(t, payload, decodedBytes)
}

func TestRoundTripAllCodecs(t *testing.T) {
	payload := bytes.Repeat([]byte("binary serializer test payload "), 64)
	for _, name := range []string{"gzip", "zlib", "zstd", "snappy", "lz4"} {
		t.Run(name, func(t *testing.T) {
			enc, err := ByName(name)
			require.NoError(t, err)
			assert.Equal(t, name, enc.Name())
			roundTrip(t, enc, payload)
		})
	}
}

func TestRoundTripEmptyPayload(t *testing.T) {
	for _, name := range []string{"gzip", "zlib", "zstd", "snappy", "lz4"} {
		t.Run(name, func(t *testing.T) {
			enc, err := ByName(name)
			require.NoError(t, err)
			roundTrip(t, enc, []byte{})
		})
	}
}

func TestByNameUnknown(t *testing.T) {
	_, err := ByName("rot13")
	assert.Error(t, err)
}
