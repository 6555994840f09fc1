package brokerclient

import (
	"context"

	"github.com/go-kit/log"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// PartitionClient resolves and caches the current leader broker for one
// (topic, partition) and sends produce RPCs to it, invalidating the cache
// and re-resolving whenever the leader turns out to be stale.
type PartitionClient struct {
	conn      *BrokerConnector
	backoff   *Backoff
	logger    log.Logger
	metrics   *Metrics
	topic     string
	partition int32
	cache     *singleSlotCache
}

// NewPartitionClient builds a PartitionClient for one partition of topic.
func NewPartitionClient(conn *BrokerConnector, topic string, partition int32, backoff *Backoff, logger log.Logger, metrics *Metrics) *PartitionClient {
	if backoff == nil {
		backoff = NewBackoff(DefaultBackoffConfig)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	pc := &PartitionClient{conn: conn, backoff: backoff, logger: logger, metrics: metrics, topic: topic, partition: partition}
	pc.cache = newSingleSlotCache("partition-leader", logger, pc.resolveLeader, conn.Invalidate)
	return pc
}

func (pc *PartitionClient) resolveLeader(ctx context.Context) (*brokerHandle, error) {
	snap, _, err := pc.conn.RequestMetadata(ctx, ArbitraryBroker(), []string{pc.topic})
	if err != nil {
		return nil, err
	}
	leaderID, ok := snap.leaderFor(pc.topic, pc.partition)
	if !ok {
		return nil, &InvalidResponseError{Msg: "no leader known for partition"}
	}
	h, ok := pc.conn.Connect(leaderID)
	if !ok {
		return nil, &InvalidResponseError{Msg: "leader id absent from broker list"}
	}
	return h, nil
}

// Cache exposes the PartitionClient's BrokerCache.
func (pc *PartitionClient) Cache() BrokerCache { return pc.cache }

// Produce sends records to the partition's current leader and returns the
// base offset assigned to each record, in order. It retries through the
// leader cache: a NotLeaderForPartition (or any connection-level failure)
// invalidates the cached leader and re-resolves before the next attempt.
func (pc *PartitionClient) Produce(ctx context.Context, records []Record) ([]int64, error) {
	return RetryWithBackoff(ctx, pc.backoff, pc.cache, pc.logger, "Produce", func(attempt int) RetryOutcome[[]int64] {
		h, err := pc.cache.Get(ctx)
		if err != nil {
			return pc.classify(err)
		}

		req := kmsg.NewProduceRequest()
		req.TimeoutMillis = 30000
		reqTopic := kmsg.NewProduceRequestTopic()
		reqTopic.Topic = pc.topic
		reqPartition := kmsg.NewProduceRequestTopicPartition()
		reqPartition.Partition = pc.partition
		reqPartition.Records = encodeRecordBatch(records)
		reqTopic.Partitions = []kmsg.ProduceRequestTopicPartition{reqPartition}
		req.Topics = []kmsg.ProduceRequestTopic{reqTopic}

		kresp, err := h.req.Request(ctx, &req)
		if err != nil {
			return ContinueWithInvalidate[[]int64]("produce request failed: " + err.Error())
		}
		resp, ok := kresp.(*kmsg.ProduceResponse)
		if !ok || len(resp.Topics) != 1 || len(resp.Topics[0].Partitions) != 1 {
			return Break[[]int64](nil, &InvalidResponseError{Msg: "produce response shape mismatch"})
		}

		part := resp.Topics[0].Partitions[0]
		if code := part.ErrorCode; code != 0 {
			return pc.classify(&ServerError{Err: kerr.ErrorForCode(code), Context: ErrorContext{Topic: pc.topic, Partition: pc.partition, HasPartition: true}})
		}
		if resp.ThrottleMillis > 0 {
			return ContinueThrottled[[]int64](throttleDuration(resp.ThrottleMillis))
		}

		offsets := make([]int64, len(records))
		for i := range offsets {
			offsets[i] = part.BaseOffset + int64(i)
		}
		return Break[[]int64](offsets, nil)
	})
}

func (pc *PartitionClient) classify(err error) RetryOutcome[[]int64] {
	switch classifyError(err) {
	case classRetriableInvalidate:
		return ContinueWithInvalidate[[]int64](err.Error())
	case classRetriable:
		return ContinueRetry[[]int64]()
	default:
		return Break[[]int64](nil, err)
	}
}
