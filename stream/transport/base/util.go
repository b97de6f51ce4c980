package base

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"
)

// maxPartSize bounds a single message part, maxMessageParts the part count.
// A header beyond these is treated as a corrupt stream rather than an
// allocation request; the protocol itself only ever sends single-part
// messages.
const (
	maxPartSize     = 64 * 1024 * 1024
	maxMessageParts = 128
)

// WriteMessage writes one multi-part message to the connection with the format:
// - 4 bytes: part count (uint32, big endian)
// - per part: 4 bytes part length (uint32, big endian) + N bytes part data
func WriteMessage(conn net.Conn, parts ...[]byte) error {
	// Create the header (4 bytes for the part count)
	header := make([]byte, 4)
	binary.BigEndian.PutUint32(header, uint32(len(parts)))

	// Gather header, per-part length prefixes and part data into one write.
	// Zero-length parts contribute only their length prefix: an empty buffer
	// would trigger a Write with no data on conns without writev support
	// (net.Pipe blocks on it while the reader never asks for zero bytes).
	buffers := make(net.Buffers, 0, 1+2*len(parts))
	buffers = append(buffers, header)
	for _, part := range parts {
		lenBuf := make([]byte, 4)
		binary.BigEndian.PutUint32(lenBuf, uint32(len(part)))
		buffers = append(buffers, lenBuf)
		if len(part) > 0 {
			buffers = append(buffers, part)
		}
	}

	_, err := buffers.WriteTo(conn)
	return err
}

// ReadMessage reads one complete multi-part message from the connection
func ReadMessage(conn net.Conn) ([][]byte, error) {
	header := make([]byte, 4)

	// Read part count
	if _, err := io.ReadFull(conn, header); err != nil {
		return nil, err
	}
	count := binary.BigEndian.Uint32(header)
	if count == 0 {
		return [][]byte{}, nil
	}
	if count > maxMessageParts {
		return nil, fmt.Errorf("invalid part count %d", count)
	}

	parts := make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		// Read part length
		if _, err := io.ReadFull(conn, header); err != nil {
			return nil, err
		}
		partLen := binary.BigEndian.Uint32(header)
		if partLen > maxPartSize {
			return nil, fmt.Errorf("part %d exceeds maximum size: %d bytes", i, partLen)
		}

		// Read part data
		part := make([]byte, partLen)
		if _, err := io.ReadFull(conn, part); err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}

	return parts, nil
}
