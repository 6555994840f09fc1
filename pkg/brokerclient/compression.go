package brokerclient

import (
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ValueCompressor compresses and decompresses record values at the
// application layer, independent of Kafka's own per-batch record-batch
// codec (which this package's raw kmsg.RecordBatch encoding in batch.go
// does not apply). It exists for callers whose payloads are large enough
// that shrinking them before they ever reach RecordAggregator's byte budget
// is worth the CPU, grounded on klauspost/compress/zstd being the
// compression library carried by the rest of the franz-go-based corpus
// (kgo itself depends on klauspost/compress for its own codecs).
type ValueCompressor struct {
	encOnce sync.Once
	enc     *zstd.Encoder

	decOnce sync.Once
	dec     *zstd.Decoder
}

// NewValueCompressor returns a ready-to-use compressor. Encoder/decoder
// construction is deferred to first use since zstd.NewWriter/NewReader can
// fail only on invalid options, never on these zero-option calls, but
// panicking at package scope is worth avoiding regardless.
func NewValueCompressor() *ValueCompressor { return &ValueCompressor{} }

// Compress returns the zstd-compressed form of value.
func (c *ValueCompressor) Compress(value []byte) []byte {
	c.encOnce.Do(func() {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			panic("brokerclient: zstd encoder construction failed: " + err.Error())
		}
		c.enc = enc
	})
	return c.enc.EncodeAll(value, make([]byte, 0, len(value)))
}

// Decompress reverses Compress.
func (c *ValueCompressor) Decompress(compressed []byte) ([]byte, error) {
	c.decOnce.Do(func() {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			panic("brokerclient: zstd decoder construction failed: " + err.Error())
		}
		c.dec = dec
	})
	return c.dec.DecodeAll(compressed, nil)
}
