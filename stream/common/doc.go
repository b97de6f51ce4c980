// Package common provides core data structures and utilities shared across
// the stream client. It defines fundamental types, configuration structures,
// and protocol elements used by all other packages.
//
// The package focuses on:
//   - The Envelope wire record and its message type tags
//   - The error taxonomy of the stream client
//   - Configuration structures for the client and its transports
//   - Custom logging implementation integrated with the logger facade
//
// Key Components:
//
//   - Envelope: The three-field record (type, correlation id, payload)
//     exchanged with the peer. The payload is opaque to this module.
//
//   - MessageType: Numeric type tag of an envelope. Application-defined;
//     only the reconnect marker value is reserved.
//
//   - ClientConfig: Configuration for the stream client, controlling the
//     peer endpoint, timeouts, queue sizes and reconnect behavior.
//
//   - Logger: Custom logging implementation that integrates with the
//     Dragonboat logging facade while providing consistent formatting.
package common
