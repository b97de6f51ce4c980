// Package serializer provides envelope serialization for the stream client.
// It defines a common interface and multiple implementations for serializing
// and deserializing envelopes exchanged with the peer.
//
// The package focuses on:
//   - Providing a consistent interface for different serialization formats
//   - Offering multiple implementations with different performance characteristics
//   - Lossless round-tripping of the three envelope fields
//   - Minimizing memory allocations and processing overhead
//
// Key Components:
//
//   - IEnvelopeSerializer: Core interface that all serializer implementations
//     must satisfy.
//
//   - binarySerializerImpl: Custom binary format implementation optimized for
//     speed and space efficiency. Uses a flag-based approach to encode only
//     present fields, resulting in compact serialized data with minimal overhead.
//     This is the wire default of the bundled tooling.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding,
//     offering good compatibility with Go's type system but with larger
//     serialized sizes.
//
//   - jsonSerializerImpl: Implementation using JSON encoding, useful for
//     debugging or interoperability with other systems, but with lower
//     performance.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	Serializers are typically created once and reused throughout the application:
//
//	  serializer := serializer.NewBinarySerializer()
//	  data, err := serializer.Serialize(envelope)
//	  // ... send data ...
//	  var received common.Envelope
//	  err = serializer.Deserialize(receivedData, &received)
package serializer
