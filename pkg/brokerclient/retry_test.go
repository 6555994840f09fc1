package brokerclient

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kerr"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want classification
	}{
		{"nil", nil, classFatal},
		{"plain error", errors.New("boom"), classFatal},
		{"server not leader", &ServerError{Err: kerr.NotLeaderForPartition}, classRetriableInvalidate},
		{"server not controller", &ServerError{Err: kerr.NotController}, classRetriableInvalidate},
		{"server leader not available", &ServerError{Err: kerr.LeaderNotAvailable}, classRetriable},
		{"server illegal sasl state", &ServerError{Err: kerr.IllegalSaslState}, classFatal},
		{"connection error", &ConnectionError{Err: errors.New("dial tcp: refused")}, classRetriableInvalidate},
		{"request io error", &RequestError{Kind: RequestIO, Err: errors.New("eof")}, classRetriableInvalidate},
		{"request poisoned", &RequestError{Kind: RequestPoisoned, Err: errors.New("bad state")}, classRetriableInvalidate},
		{"request protocol error", &RequestError{Kind: RequestProtocol, Err: errors.New("bad encoding")}, classFatal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, classifyError(tt.err))
		})
	}
}

type fakeCache struct {
	invalidations []string
}

func (f *fakeCache) Get(ctx context.Context) (*brokerHandle, error) { return nil, nil }
func (f *fakeCache) Invalidate(reason string)                       { f.invalidations = append(f.invalidations, reason) }

func TestRetryWithBackoff_InvalidateOnLeaderChange(t *testing.T) {
	cache := &fakeCache{}
	b := NewBackoff(BackoffConfig{Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2, Deadline: time.Second})

	attempts := 0
	result, err := RetryWithBackoff(context.Background(), b, cache, nil, "test-op", func(attempt int) RetryOutcome[int] {
		attempts++
		if attempts < 3 {
			return ContinueWithInvalidate[int]("not leader")
		}
		return Break(42, nil)
	})

	require.NoError(t, err)
	require.Equal(t, 42, result)
	require.Equal(t, 3, attempts)
	require.Len(t, cache.invalidations, 2)
}

func TestRetryWithBackoff_FatalBreaksImmediately(t *testing.T) {
	cache := &fakeCache{}
	b := NewBackoff(DefaultBackoffConfig)

	attempts := 0
	boom := errors.New("boom")
	_, err := RetryWithBackoff(context.Background(), b, cache, nil, "test-op", func(attempt int) RetryOutcome[int] {
		attempts++
		return Break(0, boom)
	})

	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, attempts)
	require.Empty(t, cache.invalidations)
}

func TestRetryWithBackoff_DeadlineExceededWrapsError(t *testing.T) {
	cache := &fakeCache{}
	b := NewBackoff(BackoffConfig{Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2, Deadline: 5 * time.Millisecond})

	_, err := RetryWithBackoff(context.Background(), b, cache, nil, "test-op", func(attempt int) RetryOutcome[int] {
		return ContinueRetry[int]()
	})

	var retryFailed *RetryFailedError
	require.ErrorAs(t, err, &retryFailed)
}
