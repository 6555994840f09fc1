package brokerclient

import "fmt"

// Tag is an opaque handle, unique within one batch, assigned by
// Aggregator.TryPush and redeemed through StatusDeaggregator.Deaggregate
// once the batch's offsets come back from the broker.
type Tag int

// Aggregator accumulates caller inputs of a BatchProducer-defined type and,
// on Flush, emits the wire records for one batch plus a StatusDeaggregator
// that turns the broker's reply into each caller's individual status.
// BatchProducer works against this interface, but NewBatchProducer always
// installs a RecordAggregator; no constructor accepts another Aggregator.
//
// TryPush must be deterministic and must not mutate internal state when it
// reports !accepted: the input is handed back to the caller untouched so
// BatchProducer can flush and retry it against a fresh, empty aggregator.
type Aggregator interface {
	// TryPush attempts to fold input into the current batch. accepted is
	// false ("no capacity") when input does not fit in what remains of the
	// current batch; the caller is expected to flush and retry. err is
	// non-nil only when the input can never be accepted regardless of batch
	// state (ErrTooLarge for an oversized input, or an input of a type the
	// aggregator does not handle); it is never retried.
	TryPush(input any) (tag Tag, accepted bool, err error)

	// Flush resets the aggregator's internal state and returns the
	// accumulated records (which may be empty; an empty result must not be
	// dispatched as an RPC) together with a deaggregator scoped to exactly
	// this batch's tags.
	Flush() (records []Record, deagg StatusDeaggregator)
}

// StatusDeaggregator turns a batch's base offsets and one caller's tag into
// that caller's visible status. It must be a pure function of its inputs; a
// tag from generation n must never be interpreted against offsets from a
// different generation, which is why BatchProducer always pairs a tag with
// the deaggregator produced by the same Flush call that issued it.
type StatusDeaggregator interface {
	Deaggregate(offsets []int64, tag Tag) (any, error)
}

// RecordAggregator is the canonical Aggregator: it buffers whole Records up
// to maxBytes of cumulative ApproxSize, assigns each record's 0-based index
// as its tag, and flushes the buffer verbatim. Its deaggregator indexes
// offsets[tag] directly, so "status" for this aggregator is simply an
// int64 base offset.
type RecordAggregator struct {
	maxBytes int
	records  []Record
	size     int
}

// NewRecordAggregator constructs a RecordAggregator with the given cumulative
// byte budget per batch.
func NewRecordAggregator(maxBytes int) *RecordAggregator {
	return &RecordAggregator{maxBytes: maxBytes}
}

// TryPush implements Aggregator. input must be a Record.
func (a *RecordAggregator) TryPush(input any) (Tag, bool, error) {
	rec, ok := input.(Record)
	if !ok {
		return 0, false, fmt.Errorf("brokerclient: RecordAggregator.TryPush expects a Record, got %T", input)
	}

	sz := rec.ApproxSize()
	if sz > a.maxBytes {
		return 0, false, fmt.Errorf("%w: record is %d bytes, capacity is %d", ErrTooLarge, sz, a.maxBytes)
	}
	if a.size+sz > a.maxBytes {
		return 0, false, nil
	}

	a.records = append(a.records, rec)
	a.size += sz
	return Tag(len(a.records) - 1), true, nil
}

// Flush implements Aggregator.
func (a *RecordAggregator) Flush() ([]Record, StatusDeaggregator) {
	records := a.records
	a.records = nil
	a.size = 0
	if len(records) == 0 {
		return nil, nil
	}
	return records, recordOffsetDeaggregator{}
}

// recordOffsetDeaggregator is RecordAggregator's StatusDeaggregator: the
// caller's status is simply the base offset assigned to its record.
type recordOffsetDeaggregator struct{}

func (recordOffsetDeaggregator) Deaggregate(offsets []int64, tag Tag) (any, error) {
	if int(tag) < 0 || int(tag) >= len(offsets) {
		return nil, fmt.Errorf("brokerclient: tag %d out of range for %d offsets", tag, len(offsets))
	}
	return offsets[tag], nil
}
