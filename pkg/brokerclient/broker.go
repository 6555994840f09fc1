package brokerclient

import (
	"context"

	"github.com/twmb/franz-go/pkg/kmsg"
)

// requester is satisfied by both *kgo.Client (cluster-wide, used for
// bootstrap and metadata lookups) and the per-broker handle returned by
// (*kgo.Client).Broker(id) (used once a specific broker, e.g. the
// controller or a partition leader, has been chosen). kmsg request types
// carry a RequestWith(ctx, requester) helper built exactly against this
// shape.
type requester interface {
	Request(ctx context.Context, req kmsg.Request) (kmsg.Response, error)
}

// brokerHandle is a cheap, shareable reference to one specific broker's
// connection. There is no refcounting here: BrokerConnector.Connect
// allocates a new handle on every call, but all handles for the same broker
// id route requests through the same underlying kgo.Client, and Go's GC
// collects each handle once nobody references it anymore.
type brokerHandle struct {
	id  int32
	req requester
}

// ID returns the broker id this handle targets.
func (h *brokerHandle) ID() int32 { return h.id }
