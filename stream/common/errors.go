package common

import "errors"

// Error taxonomy of the stream client. All caller-visible failures are
// reported either synchronously or through a future, never by crashing
// the worker; use errors.Is to test for them.
var (
	// ErrConnectionUnavailable is returned synchronously by Send/SendBack
	// while the client has no live connection. No message is sent.
	ErrConnectionUnavailable = errors.New("connection to peer unavailable")

	// ErrConnectionLost fails every future that was still pending when the
	// underlying connection dropped. The client reconnects automatically.
	ErrConnectionLost = errors.New("connection to peer lost")

	// ErrShutdownInProgress is returned for operations issued after Close
	ErrShutdownInProgress = errors.New("stream shutdown in progress")

	// ErrDuplicateCorrelationID signals a registry collision. Correlation
	// ids are drawn from a 128 bit random space, so this is an invariant
	// violation and not an operational error.
	ErrDuplicateCorrelationID = errors.New("correlation id already registered")
)
