package brokerclient

import (
	"context"
	"fmt"
	"math/rand"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/kmsg"
	"github.com/twmb/franz-go/pkg/sasl/plain"
)

// BrokerConnector is the process-wide registry of live broker connections:
// it owns the bootstrap seed list, resolves and caches cluster metadata
// with a monotone generation counter, and connects callers to a specific
// broker id on demand. It does not implement BrokerCache itself; it is the
// collaborator that ControllerClient's and PartitionClient's broker caches
// resolve handles through.
//
// Transport and wire framing are delegated to a *kgo.Client the same way
// pkg/ingest builds one: BrokerConnector issues raw kmsg requests through
// it (client.Request for cluster-wide calls, client.Broker(id).Request for
// broker-scoped calls) rather than using kgo's own high-level produce/fetch
// APIs, because the retry/invalidate/cache semantics in this package need
// to own that logic themselves.
type BrokerConnector struct {
	client  *kgo.Client
	logger  log.Logger
	metrics *Metrics

	mu       sync.Mutex
	snapshot *metadataSnapshot
	inflight chan struct{} // non-nil while a metadata fetch is in flight; closed when it completes
	closed   bool
}

// NewBrokerConnector dials no connections eagerly; kgo.Client itself lazily
// connects to seeds on first request. seeds must be non-empty.
func NewBrokerConnector(seeds []string, logger log.Logger, metrics *Metrics, extraOpts ...kgo.Opt) (*BrokerConnector, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("brokerclient: BrokerConnector requires at least one seed broker: %w", ErrNoBrokers)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	opts := append([]kgo.Opt{kgo.SeedBrokers(bootstrapOrder(seeds)...), kgo.WithHooks(kgoClientMetrics(metrics))}, extraOpts...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}

	return &BrokerConnector{
		client:   client,
		logger:   logger,
		metrics:  metrics,
		snapshot: newMetadataSnapshot(0),
	}, nil
}

// NewBrokerConnectorFromConfig builds a BrokerConnector from cfg, translating
// DialTimeout and, if SASLUsername is set, PLAIN SASL credentials into the
// kgo.Opts NewBrokerConnector is built from.
func NewBrokerConnectorFromConfig(cfg Config, logger log.Logger, metrics *Metrics, extraOpts ...kgo.Opt) (*BrokerConnector, error) {
	opts := []kgo.Opt{kgo.DialTimeout(cfg.DialTimeout)}
	if cfg.SASLUsername != "" {
		opts = append(opts, kgo.SASL(plain.Auth{User: cfg.SASLUsername, Pass: cfg.SASLPassword.String()}.AsMechanism()))
	}
	opts = append(opts, extraOpts...)
	return NewBrokerConnector(cfg.SeedBrokers, logger, metrics, opts...)
}

// Close releases the underlying transport. Afterwards RequestMetadata and
// RefreshMetadata return ErrClosed and Connect reports false.
func (c *BrokerConnector) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.client.Close()
}

// RequestMetadata resolves cluster metadata for the given topics (nil means
// every topic) according to mode, and returns the resulting snapshot
// together with its generation. Concurrent callers requesting
// ArbitraryBroker coalesce onto a single in-flight fetch.
func (c *BrokerConnector) RequestMetadata(ctx context.Context, mode MetadataMode, topics []string) (*metadataSnapshot, uint64, error) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, 0, ErrClosed
	}

	if mode.kind == modeCachedArbitrary {
		c.mu.Lock()
		cached := c.snapshot
		c.mu.Unlock()
		if cached.generation > mode.generation {
			return cached, cached.generation, nil
		}
	}

	c.mu.Lock()
	if c.inflight != nil {
		ch := c.inflight
		c.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
		c.mu.Lock()
		snap := c.snapshot
		c.mu.Unlock()
		return snap, snap.generation, nil
	}
	ch := make(chan struct{})
	c.inflight = ch
	c.mu.Unlock()

	snap, err := c.fetchMetadata(ctx, mode, topics)

	c.mu.Lock()
	if err == nil {
		snap.generation = c.snapshot.generation + 1
		c.snapshot = snap
	}
	c.inflight = nil
	result := c.snapshot
	c.mu.Unlock()
	close(ch)

	if err != nil {
		return nil, 0, err
	}
	return result, result.generation, nil
}

// RefreshMetadata forces a fresh fetch and publishes a new generation,
// regardless of any cached snapshot. ArbitraryBroker mode always fetches
// (or coalesces onto an in-flight fetch), so this is just a named alias for
// that call with no topic filter.
func (c *BrokerConnector) RefreshMetadata(ctx context.Context) error {
	_, _, err := c.RequestMetadata(ctx, ArbitraryBroker(), nil)
	return err
}

func (c *BrokerConnector) fetchMetadata(ctx context.Context, mode MetadataMode, topics []string) (*metadataSnapshot, error) {
	req := kmsg.NewMetadataRequest()
	if len(topics) > 0 {
		req.Topics = make([]kmsg.MetadataRequestTopic, len(topics))
		for i := range topics {
			t := topics[i]
			rt := kmsg.NewMetadataRequestTopic()
			rt.Topic = &t
			req.Topics[i] = rt
		}
	}

	var target requester = c.client
	if mode.kind == modeSpecificBroker {
		target = c.client.Broker(int(mode.brokerID))
	}

	level.Debug(c.logger).Log("msg", "requesting metadata", "mode", mode.String(), "topics", len(topics))

	kresp, err := target.Request(ctx, &req)
	if err != nil {
		return nil, &ConnectionError{Err: err}
	}
	resp, ok := kresp.(*kmsg.MetadataResponse)
	if !ok {
		return nil, &InvalidResponseError{Msg: "metadata response had unexpected type"}
	}

	if len(resp.Brokers) == 0 {
		return nil, &InvalidResponseError{Msg: "metadata response listed zero brokers"}
	}

	snap := newMetadataSnapshot(0)
	for _, b := range resp.Brokers {
		snap.brokerIDs[b.NodeID] = struct{}{}
	}
	if resp.ControllerID < 0 {
		return nil, &InvalidResponseError{Msg: "metadata response omitted the controller"}
	}
	snap.controllerID = resp.ControllerID
	snap.hasController = true

	for _, topic := range resp.Topics {
		if topic.Topic == nil {
			continue
		}
		for _, part := range topic.Partitions {
			snap.leaders[topicPartition{*topic.Topic, part.Partition}] = part.Leader
		}
	}

	return snap, nil
}

// Connect resolves a shareable handle for brokerID using the latest cached
// metadata. It reports false if the id is absent from that metadata or the
// connector has been closed.
func (c *BrokerConnector) Connect(brokerID int32) (*brokerHandle, bool) {
	c.mu.Lock()
	known := !c.closed && c.snapshot.hasBroker(brokerID)
	c.mu.Unlock()
	if !known {
		return nil, false
	}
	return &brokerHandle{id: brokerID, req: c.client.Broker(int(brokerID))}, true
}

// Invalidate evicts brokerID from the cached metadata snapshot (clearing
// the controller id too, if it was the controller), so Connect treats it as
// unknown until the next metadata fetch confirms it again. singleSlotCache
// calls this whenever it drops a cached handle, so a connection-level
// failure against one broker forces every collaborator sharing this
// connector to stop trusting that broker id, not just the one that
// observed the failure.
func (c *BrokerConnector) Invalidate(brokerID int32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.snapshot.hasBroker(brokerID) && !(c.snapshot.hasController && c.snapshot.controllerID == brokerID) {
		return
	}
	delete(c.snapshot.brokerIDs, brokerID)
	if c.snapshot.hasController && c.snapshot.controllerID == brokerID {
		c.snapshot.hasController = false
	}
	level.Debug(c.logger).Log("msg", "invalidating broker connection", "broker_id", brokerID)
}

// bootstrapOrder returns seeds in randomized order, so repeated dial
// attempts across a process's lifetime don't all hammer the same seed
// first; kgo.SeedBrokers is given this order directly in NewBrokerConnector.
func bootstrapOrder(seeds []string) []string {
	out := make([]string, len(seeds))
	copy(out, seeds)
	rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}
