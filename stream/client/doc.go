// Package client implements the asynchronous stream client: a persistent,
// identity-addressed connection to a single remote peer with correlation-based
// request/response matching and transparent reconnection.
//
// The package focuses on:
//   - Bridging arbitrary caller goroutines and the single worker that owns
//     the socket
//   - Guaranteeing exactly one terminal resolution per issued request
//   - Routing inbound envelopes: responses resolve their pending future,
//     everything else is delivered through the unsolicited pull interface
//   - Absorbing disconnects: pending futures fail, the connection is
//     re-established with a fresh identity and fresh queues
//
// Key Components:
//
//   - Stream: The public façade. Send returns a future for the eventual
//     response, SendBack replies to unsolicited envelopes fire-and-forget,
//     Receive pulls unsolicited envelopes (including the epoch-boundary
//     marker after a reconnect), WaitForReady/IsReady expose readiness and
//     Close performs orderly shutdown.
//
//   - worker: Owns the connection. Per connection epoch it runs a send loop,
//     a receive loop and a disconnect monitor; the three are torn down as a
//     unit when the connection drops, and the outer loop dials the next
//     epoch with exponential backoff.
//
// Error Policy:
//
//	Loss of the connection is never escalated to the caller as a fatal
//	error: pending futures fail with common.ErrConnectionLost and the client
//	reconnects. Sends while not ready fail synchronously with
//	common.ErrConnectionUnavailable and produce no wire traffic. Only an
//	explicit Close is terminal.
//
// Thread Safety:
//
//	All Stream methods are safe for concurrent use from multiple goroutines.
//	The socket and the epoch queues are owned exclusively by the worker; the
//	future registry is the only structure mutated from both sides, through
//	its atomic operations.
package client
