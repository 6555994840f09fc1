package brokerclient_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/grafana/brokerclient/internal/faketest"
	"github.com/grafana/brokerclient/pkg/brokerclient"
	"github.com/stretchr/testify/require"
)

func newTestProducer(t *testing.T, topic string, maxBatchBytes int, linger time.Duration) *brokerclient.BatchProducer {
	t.Helper()
	cluster := faketest.New(t, 1, topic)

	conn, err := brokerclient.NewBrokerConnector([]string{cluster.Addr()}, nil, nil)
	require.NoError(t, err)
	t.Cleanup(conn.Close)

	pc := brokerclient.NewPartitionClient(conn, topic, 0, nil, nil, nil)
	return brokerclient.NewBatchProducer(pc, maxBatchBytes, linger, nil, nil)
}

func TestBatchProducer_SingleRecordFlushesOnLinger(t *testing.T) {
	bp := newTestProducer(t, "producer-single-topic", 1<<20, 10*time.Millisecond)

	result, err := bp.Produce(t.Context(), brokerclient.Record{Value: []byte("hello")})
	require.NoError(t, err)
	require.Equal(t, int64(0), result)
}

func TestBatchProducer_ConcurrentCallersGetDistinctOffsets(t *testing.T) {
	bp := newTestProducer(t, "producer-concurrent-topic", 1<<20, 50*time.Millisecond)

	const n = 20
	results := make([]any, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = bp.Produce(t.Context(), brokerclient.Record{Value: []byte("v")})
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, n)
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		offset, ok := results[i].(int64)
		require.True(t, ok)
		require.False(t, seen[offset], "offset %d assigned to more than one caller", offset)
		seen[offset] = true
	}
}

func TestBatchProducer_FlushesImmediatelyWhenBatchFull(t *testing.T) {
	// maxBatchBytes holds exactly one ~104-byte record (64 bytes of
	// recordOverheadBytes plus a 40-byte value); a second concurrent record
	// overflows it and must trigger an eager flush of the first batch rather
	// than wait out the hour-long linger the first caller is racing against.
	bp := newTestProducer(t, "producer-full-topic", 110, time.Hour)

	start := time.Now()
	done := make(chan error, 1)
	go func() {
		_, err := bp.Produce(t.Context(), brokerclient.Record{Value: make([]byte, 40)})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)

	// The second record overflows the first batch's capacity and becomes
	// the owner of a fresh (also hour-long) linger window of its own; its
	// own completion isn't this test's concern, so it's raced against a
	// short-lived context instead of awaited.
	secondCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	go bp.Produce(secondCtx, brokerclient.Record{Value: make([]byte, 40)})

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("first caller's batch was not eagerly flushed when it overflowed")
	}
	require.Less(t, time.Since(start), 5*time.Second)
}
