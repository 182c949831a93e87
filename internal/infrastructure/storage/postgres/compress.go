package postgres

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	zstdDecoder, _ = zstd.NewReader(nil)
)

// CompressBlob zstd-compresses a binary column value. nil stays nil.
func CompressBlob(b []byte) []byte {
	if b == nil {
		return nil
	}
	return zstdEncoder.EncodeAll(b, make([]byte, 0, len(b)/2))
}

// DecompressBlob reverses CompressBlob.
func DecompressBlob(b []byte) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	out, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress blob: %w", err)
	}
	return out, nil
}
