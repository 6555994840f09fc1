// Package faketest wraps kfake.Cluster the way grafana-tempo's
// pkg/ingest/reader_client_test.go and config_test.go use it directly:
// a single in-process broker cluster per test, addressable by its listen
// address, with ControlKey hooks for injecting specific wire errors.
package faketest

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kfake"
)

// Cluster is a single-broker kfake cluster seeded with the given topics,
// closed automatically at test cleanup.
type Cluster struct {
	*kfake.Cluster
}

// New starts a one-broker kfake cluster seeding each of topics with
// partitions partitions, and registers its Close with t.Cleanup.
func New(t *testing.T, partitions int, topics ...string) *Cluster {
	t.Helper()

	opts := []kfake.Opt{kfake.NumBrokers(1)}
	for _, topic := range topics {
		opts = append(opts, kfake.SeedTopics(partitions, topic))
	}

	fake, err := kfake.NewCluster(opts...)
	require.NoError(t, err)
	t.Cleanup(fake.Close)

	return &Cluster{Cluster: fake}
}

// Addr returns the cluster's single broker address, suitable for
// kgo.SeedBrokers.
func (c *Cluster) Addr() string {
	return c.ListenAddrs()[0]
}
