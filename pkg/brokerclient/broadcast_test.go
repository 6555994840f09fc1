package brokerclient

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcastOnce_FiresAllReceivers(t *testing.T) {
	slot := NewBroadcastOnce[int]()

	const n = 10
	var wg sync.WaitGroup
	results := make([]int, n)
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-slot.Receive()
			v, ok := slot.Peek()
			require.True(t, ok)
			results[i] = v
		}()
	}

	time.Sleep(10 * time.Millisecond) // let receivers subscribe
	slot.Broadcast(7)
	wg.Wait()

	for _, v := range results {
		assert.Equal(t, 7, v)
	}
}

func TestBroadcastOnce_PeekBeforeFire(t *testing.T) {
	slot := NewBroadcastOnce[string]()
	_, ok := slot.Peek()
	assert.False(t, ok)
}

func TestBroadcastOnce_ReceiverAfterFireSeesItImmediately(t *testing.T) {
	slot := NewBroadcastOnce[int]()
	slot.Broadcast(3)

	select {
	case <-slot.Receive():
	default:
		t.Fatal("receive channel should already be closed")
	}
	v, ok := slot.Peek()
	require.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestBroadcastOnce_DoubleFirePanics(t *testing.T) {
	slot := NewBroadcastOnce[int]()
	slot.Broadcast(1)
	assert.Panics(t, func() { slot.Broadcast(2) })
}
