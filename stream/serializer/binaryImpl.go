package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dStream/stream/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IEnvelopeSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IEnvelopeSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasCorrelationID byte = 1 << 0
	hasContent       byte = 1 << 1
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IEnvelopeSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(env common.Envelope) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(env)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(env.MsgType)

	// Initialize flags byte
	var flags byte = 0

	// Set position for writing
	pos := 2 // Start after MsgType and flags

	// Handle CorrelationID
	if env.CorrelationID != "" {
		flags |= hasCorrelationID
		idBytes := []byte(env.CorrelationID)
		idLen := len(idBytes)

		// Write id length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(idLen))
		pos += 4

		// Write id data
		copy(result[pos:pos+idLen], idBytes)
		pos += idLen
	}

	// Handle Content
	if env.Content != nil {
		flags |= hasContent
		contentLen := len(env.Content)

		// Write content length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(contentLen))
		pos += 4

		// Write content data
		if contentLen > 0 {
			copy(result[pos:pos+contentLen], env.Content)
			pos += contentLen
		}
	}

	// Set flags byte after knowing which fields are present
	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, env *common.Envelope) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for envelope header")
	}

	// Read message type
	env.MsgType = common.MessageType(data[0])

	// Read flags
	flags := data[1]

	// Initialize read position
	pos := 2

	// Read CorrelationID if present
	if flags&hasCorrelationID != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for correlation id length")
		}

		// Read id length
		idLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(idLen) > len(data) {
			return fmt.Errorf("data too short for correlation id data")
		}

		// Read id data
		env.CorrelationID = string(data[pos : pos+int(idLen)])
		pos += int(idLen)
	} else {
		env.CorrelationID = ""
	}

	// Read Content if present
	if flags&hasContent != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for content length")
		}

		// Read content length
		contentLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(contentLen) > len(data) {
			return fmt.Errorf("data too short for content data")
		}

		// Read content data - create an empty slice (not nil) if length is 0
		// Allocate only if needed
		if env.Content == nil || cap(env.Content) < int(contentLen) {
			env.Content = make([]byte, contentLen)
		} else {
			env.Content = env.Content[:contentLen]
		}

		if contentLen > 0 {
			copy(env.Content, data[pos:pos+int(contentLen)])
		}
		pos += int(contentLen)
	} else {
		env.Content = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(env common.Envelope) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	// Add sizes for fields that require length encoding
	if env.CorrelationID != "" {
		size += 4 + len(env.CorrelationID) // 4 bytes for length + id string
	}
	if env.Content != nil {
		size += 4 + len(env.Content) // 4 bytes for length + content bytes
	}

	return size
}
