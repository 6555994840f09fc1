package brokerclient

import "time"

// recordOverheadBytes approximates the wire overhead of a single record
// (varint lengths, attributes, etc) that isn't accounted for by summing key,
// value and header lengths. It keeps ApproxSize monotone in key+value+header
// length without requiring the real codec.
const recordOverheadBytes = 64

// RecordHeader is a single header entry. Order is preserved by Record.Headers
// and by the wire codec, matching Kafka's header semantics.
type RecordHeader struct {
	Key   string
	Value []byte
}

// Record is the wire unit the aggregator accumulates and the producer
// dispatches: an optional key, an optional value, ordered headers, and a
// millisecond-resolution timestamp. It is the Go analog of
// twmb/franz-go/pkg/kgo.Record, trimmed to the fields the core pipeline
// needs (no partition/offset/topic bookkeeping — those are supplied by the
// PartitionClient that owns the destination).
type Record struct {
	Key       []byte
	Value     []byte
	Headers   []RecordHeader
	Timestamp time.Time
}

// ApproxSize returns an allocation-free, monotone-in-length estimate of the
// record's serialized size. It is used by RecordAggregator to enforce a
// byte budget without touching the real wire codec.
func (r Record) ApproxSize() int {
	n := len(r.Key) + len(r.Value) + recordOverheadBytes
	for _, h := range r.Headers {
		n += len(h.Key) + len(h.Value)
	}
	return n
}
