package brokerclient

import (
	"errors"
	"fmt"
)

// Sentinel errors a caller can compare against with errors.Is.
var (
	// ErrTooLarge is returned when a single input exceeds the aggregator's
	// capacity on its own; it is never retried.
	ErrTooLarge = errors.New("brokerclient: input exceeds aggregator capacity")

	// ErrClosed is returned by BrokerConnector.RequestMetadata (and so by
	// RefreshMetadata) once the connector has been closed.
	ErrClosed = errors.New("brokerclient: client closed")

	// ErrNoBrokers is wrapped by NewBrokerConnector when it is given an empty
	// seed list.
	ErrNoBrokers = errors.New("brokerclient: no brokers available")
)

// RequestErrorKind classifies a failure in the messenger/transport layer,
// i.e. errors that never made it to a parsed protocol response.
type RequestErrorKind int

const (
	// RequestIO covers connection resets, dial failures and timeouts.
	RequestIO RequestErrorKind = iota
	// RequestPoisoned marks a connection that desynced its request/response
	// correlation and must be torn down.
	RequestPoisoned
	// RequestProtocol marks a response the codec could not parse.
	RequestProtocol
)

func (k RequestErrorKind) String() string {
	switch k {
	case RequestIO:
		return "io"
	case RequestPoisoned:
		return "poisoned"
	case RequestProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// RequestError wraps a transport-level failure together with its classification.
type RequestError struct {
	Kind RequestErrorKind
	Err  error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("brokerclient: request %s: %v", e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// ConnectionError wraps a bootstrap or dial failure across the seed list.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string { return fmt.Sprintf("brokerclient: connection: %v", e.Err) }
func (e *ConnectionError) Unwrap() error { return e.Err }

// InvalidResponseError marks a structurally valid response that is
// semantically wrong for the request that produced it (wrong topic count,
// missing controller, etc). Always fatal.
type InvalidResponseError struct {
	Msg string
}

func (e *InvalidResponseError) Error() string { return "brokerclient: invalid response: " + e.Msg }

// ErrorContext names what a ServerError is about, for logging and for
// callers that want to branch on it. HasPartition distinguishes "no
// partition" from partition 0, which is a valid partition and the default
// used throughout cmd/brokerclient-bench.
type ErrorContext struct {
	Topic        string
	Partition    int32
	HasPartition bool
}

func (c ErrorContext) String() string {
	if c.Topic == "" {
		return ""
	}
	if !c.HasPartition {
		return fmt.Sprintf(" (topic=%s)", c.Topic)
	}
	return fmt.Sprintf(" (topic=%s partition=%d)", c.Topic, c.Partition)
}

// ServerError wraps a broker-reported protocol error (typically a
// twmb/franz-go/pkg/kerr.Error) with the request context it occurred in.
type ServerError struct {
	Err     error
	Context ErrorContext
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("brokerclient: server error%s: %v", e.Context, e.Err)
}

func (e *ServerError) Unwrap() error { return e.Err }

// AggregatorError wraps a failure returned by Aggregator.TryPush. It is
// fatal to the single calling Produce request; it does not poison the batch.
type AggregatorError struct {
	Err error
}

func (e *AggregatorError) Error() string { return fmt.Sprintf("brokerclient: aggregator: %v", e.Err) }
func (e *AggregatorError) Unwrap() error { return e.Err }

// RetryFailedError wraps a backoff deadline exceeded while retrying a
// request through the retry envelope.
type RetryFailedError struct {
	Err error
}

func (e *RetryFailedError) Error() string { return fmt.Sprintf("brokerclient: retry failed: %v", e.Err) }
func (e *RetryFailedError) Unwrap() error { return e.Err }
