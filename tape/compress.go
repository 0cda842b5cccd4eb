package tape

import (
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt marks cassette paths stored zstd-compressed. Each append
// writes one independent frame; loading decodes the concatenated frames
// back into one document stream, so the append-only protocol is unchanged.
const CompressedExt = ".zst"

func isCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedExt)
}

var (
	zstdOnce    sync.Once
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

// initZstd builds the shared stateless encoder/decoder. EncodeAll and
// DecodeAll are safe for concurrent use on a single instance.
func initZstd() {
	zstdOnce.Do(func() {
		zstdEncoder, _ = zstd.NewWriter(nil)
		zstdDecoder, _ = zstd.NewReader(nil)
	})
}

func compress(data []byte) []byte {
	initZstd()
	return zstdEncoder.EncodeAll(data, nil)
}

func decompress(data []byte) ([]byte, error) {
	initZstd()
	return zstdDecoder.DecodeAll(data, nil)
}
