package brokerclient

import (
	"context"
	"errors"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/twmb/franz-go/pkg/kerr"
)

// RetryOutcome is what the function passed to RetryWithBackoff reports each
// attempt: a terminal result (success or fatal failure), a server-requested
// throttle, an instruction to invalidate the cache and retry, or a plain
// retry.
type RetryOutcome[T any] struct {
	done  bool
	value T
	err   error

	throttle         bool
	throttleDuration time.Duration

	invalidate       bool
	invalidateReason string
}

// Break reports a terminal outcome: success (err == nil) or a fatal error.
func Break[T any](v T, err error) RetryOutcome[T] { return RetryOutcome[T]{done: true, value: v, err: err} }

// ContinueRetry reports a plain retriable failure: sleep per the backoff
// schedule (advancing it) and try again, with no cache invalidation.
func ContinueRetry[T any]() RetryOutcome[T] { return RetryOutcome[T]{} }

// ContinueWithInvalidate reports a retriable failure that also means the
// cached broker handle is known-bad (NotController, NotLeaderForPartition,
// a connection error, ...): the cache is invalidated before the backoff
// sleep and retry.
func ContinueWithInvalidate[T any](reason string) RetryOutcome[T] {
	return RetryOutcome[T]{invalidate: true, invalidateReason: reason}
}

// ContinueThrottled reports a server-requested throttle: the loop sleeps
// exactly d and does NOT advance the backoff schedule.
func ContinueThrottled[T any](d time.Duration) RetryOutcome[T] {
	return RetryOutcome[T]{throttle: true, throttleDuration: d}
}

// RetryWithBackoff drives f in a loop against cache: throttle sleeps
// without advancing the schedule; connection/poisoned/IO errors and
// NotController/NotLeaderForPartition invalidate the cache before
// retrying; other retriable protocol errors retry without invalidation;
// everything else is fatal and breaks the loop immediately. name is used
// only for logging.
func RetryWithBackoff[T any](ctx context.Context, b *Backoff, cache BrokerCache, logger log.Logger, name string, f func(attempt int) RetryOutcome[T]) (T, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	result, err := RetryBackoff(ctx, b, func(attempt int) Outcome[T] {
		out := f(attempt)
		if out.done {
			return Outcome[T]{Done: true, Value: out.value, Err: out.err}
		}

		if out.invalidate {
			level.Warn(logger).Log("msg", "retrying after invalidating broker cache", "op", name, "attempt", attempt, "reason", out.invalidateReason)
			cache.Invalidate(out.invalidateReason)
			return Outcome[T]{}
		}
		if out.throttle {
			level.Debug(logger).Log("msg", "retrying after broker throttle", "op", name, "attempt", attempt, "duration", out.throttleDuration)
			return Outcome[T]{Throttle: out.throttleDuration}
		}
		level.Debug(logger).Log("msg", "retrying", "op", name, "attempt", attempt)
		return Outcome[T]{}
	})
	if errors.Is(err, ErrDeadlineExceeded) {
		return result, &RetryFailedError{Err: err}
	}
	return result, err
}

// classification is the result of inspecting an error returned by a single
// attempt at a broker RPC.
type classification int

const (
	classFatal classification = iota
	classRetriable
	classRetriableInvalidate
)

// classifyError maps a protocol/transport error to a classification.
// kerr.IsRetriable is trusted as the base retriability oracle (it already
// encodes the full corruption/throttling/leader-unavailable/
// coordinator-loading retriable set the Kafka wire protocol defines),
// narrowed further here to flag exactly two errors as requiring cache
// invalidation: NotController and NotLeaderForPartition. RequestError
// with Poisoned or IO codes, and ConnectionError, always invalidate too,
// since the broker cache's cached connection is definitely bad in those
// cases.
func classifyError(err error) classification {
	if err == nil {
		return classFatal
	}

	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		switch reqErr.Kind {
		case RequestPoisoned, RequestIO:
			return classRetriableInvalidate
		default: // RequestProtocol
			return classFatal
		}
	}

	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return classRetriableInvalidate
	}

	var srvErr *ServerError
	if errors.As(err, &srvErr) {
		if errors.Is(srvErr.Err, kerr.NotController) || errors.Is(srvErr.Err, kerr.NotLeaderForPartition) {
			return classRetriableInvalidate
		}
		if kerr.IsRetriable(srvErr.Err) {
			return classRetriable
		}
		return classFatal
	}

	if kerr.IsRetriable(err) {
		return classRetriable
	}
	return classFatal
}
