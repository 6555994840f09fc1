package brokerclient

import (
	"time"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// encodeRecordBatch builds the v2 record-batch wire payload for records,
// the same container format kmsg.RecordBatch/kmsg.Record model directly
// (the Kafka protocol defines RecordBatch as part of the wire protocol
// itself, and kmsg generates bindings for it exactly like every other
// request/response type). kgo's own produce path builds and caches these
// batches per partition; this package builds one fresh per flush, since
// BatchProducer already owns batching at a higher level via RecordAggregator.
//
// RecordBatch.Records is the pre-encoded records blob, not a []kmsg.Record:
// each Record is appended to it individually via Record.AppendTo before the
// enclosing RecordBatch itself is appended.
func encodeRecordBatch(records []Record) []byte {
	batch := kmsg.NewRecordBatch()
	batch.FirstOffset = 0
	batch.LastOffsetDelta = int32(len(records) - 1)
	if len(records) > 0 {
		batch.FirstTimestamp = records[0].Timestamp.UnixMilli()
	}
	maxTS := batch.FirstTimestamp
	batch.ProducerID = -1
	batch.ProducerEpoch = -1
	batch.FirstSequence = -1

	var recordsBuf []byte
	for i, r := range records {
		kr := kmsg.NewRecord()
		kr.OffsetDelta = int32(i)
		ts := r.Timestamp.UnixMilli()
		kr.TimestampDelta64 = ts - batch.FirstTimestamp
		if ts > maxTS {
			maxTS = ts
		}
		kr.Key = r.Key
		kr.Value = r.Value
		if len(r.Headers) > 0 {
			kr.Headers = make([]kmsg.RecordHeader, len(r.Headers))
			for j, h := range r.Headers {
				kr.Headers[j] = kmsg.RecordHeader{Key: h.Key, Value: h.Value}
			}
		}
		recordsBuf = kr.AppendTo(recordsBuf)
	}
	batch.MaxTimestamp = maxTS
	batch.NumRecords = int32(len(records))
	batch.Records = recordsBuf

	return batch.AppendTo(nil)
}

func throttleDuration(ms int32) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
