package brokerclient

import (
	"context"
	"time"

	"github.com/go-kit/log"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// ControllerClient resolves and caches the cluster controller broker, and
// exposes the admin-path operations that must run against it: creating
// topics. CreateTopic is implemented one layer below kadm, going through
// this package's own retry envelope and broker cache instead of kadm's
// internal one; Admin exposes a real *kadm.Client sharing the same
// transport for broader admin calls.
type ControllerClient struct {
	conn    *BrokerConnector
	backoff *Backoff
	logger  log.Logger
	metrics *Metrics
	cache   *singleSlotCache
}

// NewControllerClient builds a ControllerClient backed by conn. backoff
// configures every retried operation; a nil backoff falls back to
// DefaultBackoffConfig.
func NewControllerClient(conn *BrokerConnector, backoff *Backoff, logger log.Logger, metrics *Metrics) *ControllerClient {
	if backoff == nil {
		backoff = NewBackoff(DefaultBackoffConfig)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	cc := &ControllerClient{conn: conn, backoff: backoff, logger: logger, metrics: metrics}
	cc.cache = newSingleSlotCache("controller", logger, cc.resolveController, conn.Invalidate)
	return cc
}

func (cc *ControllerClient) resolveController(ctx context.Context) (*brokerHandle, error) {
	snap, _, err := cc.conn.RequestMetadata(ctx, ArbitraryBroker(), nil)
	if err != nil {
		return nil, err
	}
	if !snap.hasController {
		return nil, &InvalidResponseError{Msg: "metadata carried no controller id"}
	}
	h, ok := cc.conn.Connect(snap.controllerID)
	if !ok {
		return nil, &InvalidResponseError{Msg: "controller id absent from broker list"}
	}
	return h, nil
}

// Cache exposes the ControllerClient's BrokerCache, for tests and for
// composing with RetryWithBackoff directly.
func (cc *ControllerClient) Cache() BrokerCache { return cc.cache }

// CreateTopic creates a topic with the given partition count and
// replication factor, retrying through the controller cache and refreshing
// cluster metadata on success so that a subsequent PartitionClient lookup
// observes the new topic's leaders.
func (cc *ControllerClient) CreateTopic(ctx context.Context, topic string, numPartitions, replicationFactor int32, timeout time.Duration) error {
	_, err := RetryWithBackoff(ctx, cc.backoff, cc.cache, cc.logger, "CreateTopic", func(attempt int) RetryOutcome[struct{}] {
		h, err := cc.cache.Get(ctx)
		if err != nil {
			return cc.classify(err)
		}

		req := kmsg.NewCreateTopicsRequest()
		req.TimeoutMillis = int32(timeout / time.Millisecond)
		ct := kmsg.NewCreateTopicsRequestTopic()
		ct.Topic = topic
		ct.NumPartitions = numPartitions
		ct.ReplicationFactor = int16(replicationFactor)
		req.Topics = []kmsg.CreateTopicsRequestTopic{ct}

		kresp, err := h.req.Request(ctx, &req)
		if err != nil {
			return ContinueWithInvalidate[struct{}]("controller request failed: " + err.Error())
		}
		resp, ok := kresp.(*kmsg.CreateTopicsResponse)
		if !ok || len(resp.Topics) != 1 {
			return Break[struct{}](struct{}{}, &InvalidResponseError{Msg: "create topics response shape mismatch"})
		}
		if code := resp.Topics[0].ErrorCode; code != 0 {
			return cc.classify(&ServerError{Err: kerr.ErrorForCode(code), Context: ErrorContext{Topic: topic}})
		}
		if resp.ThrottleMillis > 0 {
			return ContinueThrottled[struct{}](throttleDuration(resp.ThrottleMillis))
		}
		return Break[struct{}](struct{}{}, nil)
	})
	if err != nil {
		return err
	}
	return cc.conn.RefreshMetadata(ctx)
}

func (cc *ControllerClient) classify(err error) RetryOutcome[struct{}] {
	switch classifyError(err) {
	case classRetriableInvalidate:
		return ContinueWithInvalidate[struct{}](err.Error())
	case classRetriable:
		return ContinueRetry[struct{}]()
	default:
		return Break[struct{}](struct{}{}, err)
	}
}

// Admin returns a kadm.Client sharing the same underlying transport, for
// callers that want kadm's broader admin surface (ListTopics, DescribeConfigs,
// ...) rather than this package's narrow CreateTopic.
func (cc *ControllerClient) Admin() *kadm.Client {
	return kadm.NewClient(cc.conn.client)
}
