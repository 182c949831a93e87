package postgres

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobCompression(t *testing.T) {
	logo := bytes.Repeat([]byte("\x89PNG-ish payload "), 200)

	packed := CompressBlob(logo)
	assert.Less(t, len(packed), len(logo))

	out, err := DecompressBlob(packed)
	require.NoError(t, err)
	assert.Equal(t, logo, out)

	assert.Nil(t, CompressBlob(nil))
	out, err = DecompressBlob(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = DecompressBlob([]byte("not zstd"))
	assert.Error(t, err)
}
