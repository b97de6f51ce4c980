// Package base provides a foundation for stream transports, implementing the
// core connection functionality independent of the specific network protocol
// (TCP, Unix sockets, etc.). It serves as a base layer that is extended with
// protocol-specific connectors.
//
// The package focuses on:
//   - Protocol-agnostic connection establishment with identity handshake
//   - Frame-based multi-part message protocol
//   - Side-channel disconnect notification
//
// Key Components:
//
//   - IClientConnector: Interface for protocol-specific operations that allows
//     extending the base transport with different network protocols.
//
//   - streamConn: A single established connection. Generates a fresh random
//     client identity per connection and announces it as the first message on
//     the wire. The disconnect channel is closed exactly once on the first
//     send or receive error (or explicit close).
//
//   - WriteMessage/ReadMessage: The multi-part framing used on the wire.
//     WriteMessage uses net.Buffers to combine the frame header, part length
//     prefixes and part payloads into a single write operation.
//
// Thread Safety:
//
//	SendParts is safe for concurrent use (writes are serialized by a mutex).
//	RecvParts must be driven by a single reader goroutine, which is how the
//	stream worker uses it.
package base
