package brokerclient_test

import (
	"testing"

	"github.com/grafana/brokerclient/internal/faketest"
	"github.com/grafana/brokerclient/pkg/brokerclient"
	"github.com/stretchr/testify/require"
)

func TestPartitionClient_ProduceAssignsOffsets(t *testing.T) {
	cluster := faketest.New(t, 1, "partition-produce-topic")

	conn, err := brokerclient.NewBrokerConnector([]string{cluster.Addr()}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	pc := brokerclient.NewPartitionClient(conn, "partition-produce-topic", 0, nil, nil, nil)

	offsets, err := pc.Produce(t.Context(), []brokerclient.Record{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	})
	require.NoError(t, err)
	require.Len(t, offsets, 2)
	require.Equal(t, offsets[0]+1, offsets[1])
}

func TestPartitionClient_ProduceSequentialBatchesAdvanceOffsets(t *testing.T) {
	cluster := faketest.New(t, 1, "partition-sequential-topic")

	conn, err := brokerclient.NewBrokerConnector([]string{cluster.Addr()}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	pc := brokerclient.NewPartitionClient(conn, "partition-sequential-topic", 0, nil, nil, nil)

	first, err := pc.Produce(t.Context(), []brokerclient.Record{{Value: []byte("1")}})
	require.NoError(t, err)

	second, err := pc.Produce(t.Context(), []brokerclient.Record{{Value: []byte("2")}})
	require.NoError(t, err)

	require.Greater(t, second[0], first[0])
}
