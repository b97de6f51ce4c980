// Package transport defines the interfaces and abstractions for the stream
// client's communication with its peer. It provides a common contract that
// all transport implementations must fulfill, enabling protocol-agnostic
// communication.
//
// The package focuses on:
//   - Defining a clear interface for identity-addressed connections
//   - Multi-part message send/receive
//   - Side-channel disconnect notification
//   - Enabling multiple transport implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IStreamTransport: Factory interface that dials one connection per
//     connection epoch.
//
//   - IStreamConn: A single established connection with identity, multi-part
//     messaging and a disconnect channel.
package transport
