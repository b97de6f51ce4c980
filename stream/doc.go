// Package stream provides an asynchronous, correlation-based request/response
// client for a persistent connection to a single remote peer. It acts as the
// messaging layer between an application and a long-lived validator-style
// endpoint, multiplexing many in-flight requests over one socket.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the stream system,
//     including the Envelope wire record, configuration structures, the error
//     taxonomy, and logging.
//
//   - transport: Network communication abstractions with pluggable
//     implementations (TCP, Unix sockets), including the identity handshake
//     and length-prefixed multipart framing.
//
//   - serializer: Envelope serialization with multiple format options
//     (Binary, JSON, GOB) for converting between Envelope objects and byte
//     arrays.
//
//   - future: Single-assignment result handles and the correlation-id-keyed
//     collection that routes responses back to their waiting callers.
//
//   - client: The stream client itself, with its reconnecting background
//     worker, readiness gate and unsolicited-message delivery.
//
//   - teststream: An in-process scripted peer used by the test suites and the
//     bundled serve command.
package stream
