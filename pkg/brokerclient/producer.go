package brokerclient

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
)

// flushResult is what one flush broadcasts to every caller waiting on the
// batch it flushed: either the produced offsets plus the deaggregator that
// turns this caller's own Tag back into its own offset, or the shared error
// every one of those callers failed with.
type flushResult struct {
	offsets []int64
	err     error
	deagg   StatusDeaggregator
}

// BatchProducer is the package's entry point for producing: callers hand it
// one input at a time via Produce, and it transparently batches concurrent
// callers into as few produce RPCs as the aggregator's capacity and the
// linger window allow. This is "the heart" of the package the same way
// ingester append paths build on a shared batching buffer in pkg/ingest.
//
// Produce is not safe to call after its ctx is canceled mid-flush: a
// canceled caller returns ctx.Err() without waiting for the flush it may
// still be part of to complete, but the flush itself (and every other
// caller batched into it) proceeds regardless.
type BatchProducer struct {
	partition *PartitionClient
	linger    time.Duration
	logger    log.Logger
	metrics   *Metrics

	mu            sync.Mutex
	agg           Aggregator
	slot          *BroadcastOnce[flushResult]
	lingerStarted bool
}

// NewBatchProducer builds a BatchProducer that flushes through partition,
// batching records up to maxBatchBytes or until linger elapses since the
// first record of the batch was accepted, whichever comes first.
func NewBatchProducer(partition *PartitionClient, maxBatchBytes int, linger time.Duration, logger log.Logger, metrics *Metrics) *BatchProducer {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &BatchProducer{
		partition: partition,
		linger:    linger,
		logger:    logger,
		metrics:   metrics,
		agg:       NewRecordAggregator(maxBatchBytes),
		slot:      NewBroadcastOnce[flushResult](),
	}
}

// Produce aggregates input into the current batch and blocks until that
// batch is flushed, returning the caller's own deaggregated result (for
// RecordAggregator, the offset assigned to its record). Concurrent callers
// racing the same batch all observe one produce RPC.
func (p *BatchProducer) Produce(ctx context.Context, input any) (any, error) {
	for {
		p.mu.Lock()
		tag, ok, err := p.agg.TryPush(input)
		if err != nil {
			p.mu.Unlock()
			return nil, err
		}
		if !ok {
			records, deagg := p.agg.Flush()
			oldSlot := p.slot
			p.slot = NewBroadcastOnce[flushResult]()
			p.lingerStarted = false
			p.mu.Unlock()

			p.flushAndBroadcast(ctx, records, deagg, oldSlot)
			continue
		}

		slot := p.slot
		owner := !p.lingerStarted
		if owner {
			p.lingerStarted = true
		}
		p.mu.Unlock()

		if owner {
			if err := p.driveLinger(ctx, slot); err != nil {
				return nil, err
			}
		} else {
			select {
			case <-slot.Receive():
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		res, _ := slot.Peek()
		if res.err != nil {
			return nil, res.err
		}
		return res.deagg.Deaggregate(res.offsets, tag)
	}
}

// driveLinger is run by exactly the caller that started a fresh batch: it
// owns racing the linger timer against the batch filling up and flushing
// the batch itself if the timer wins.
func (p *BatchProducer) driveLinger(ctx context.Context, slot *BroadcastOnce[flushResult]) error {
	timer := time.NewTimer(p.linger)
	defer timer.Stop()

	select {
	case <-slot.Receive():
		return nil
	case <-timer.C:
	case <-ctx.Done():
		return ctx.Err()
	}

	p.mu.Lock()
	if p.slot != slot {
		// Someone else already took this batch via the no-capacity path; its
		// RPC may still be in flight, so wait for that flush to broadcast.
		p.mu.Unlock()
		select {
		case <-slot.Receive():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	records, deagg := p.agg.Flush()
	p.slot = NewBroadcastOnce[flushResult]()
	p.lingerStarted = false
	p.mu.Unlock()

	if records == nil {
		return nil
	}
	p.flushAndBroadcast(ctx, records, deagg, slot)
	return nil
}

func (p *BatchProducer) flushAndBroadcast(ctx context.Context, records []Record, deagg StatusDeaggregator, slot *BroadcastOnce[flushResult]) {
	p.metrics.produceBatchRecords.Observe(float64(len(records)))
	var size int
	for _, r := range records {
		size += r.ApproxSize()
	}
	p.metrics.produceBatchBytes.Observe(float64(size))

	offsets, err := p.partition.Produce(ctx, records)
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	p.metrics.produceRequestsTotal.WithLabelValues(outcome).Inc()

	slot.Broadcast(flushResult{offsets: offsets, err: err, deagg: deagg})
}
