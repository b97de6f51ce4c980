package common

// --------------------------------------------------------------------------
// Envelope Structure
// --------------------------------------------------------------------------

// Envelope is the three-field wire record exchanged with the peer.
// The correlation id links a request to its eventual response; the content
// is an opaque payload that is never interpreted by the stream core.
type Envelope struct {
	// Type of message (application-defined)
	MsgType MessageType `json:"msg_type"`

	// CorrelationID links a request to its response. Generated fresh for
	// every request sent via Stream.Send, reused verbatim by Stream.SendBack.
	CorrelationID string `json:"correlation_id,omitempty"`

	// Content is the opaque byte payload
	Content []byte `json:"content,omitempty"`
}

// --------------------------------------------------------------------------
// Envelope Factory Functions
// --------------------------------------------------------------------------

// NewEnvelope creates a new envelope with the given type, correlation id and content
func NewEnvelope(msgType MessageType, correlationID string, content []byte) *Envelope {
	return &Envelope{
		MsgType:       msgType,
		CorrelationID: correlationID,
		Content:       content,
	}
}

// NewReconnectEvent creates the epoch-boundary marker that is placed on the
// inbound queue after a reconnect. It never travels on the wire.
func NewReconnectEvent() *Envelope {
	return &Envelope{MsgType: MsgTReconnectEvent}
}

// IsReconnectEvent reports whether this envelope is the epoch-boundary marker
// delivered via Stream.Receive after a reconnect
func (e *Envelope) IsReconnectEvent() bool {
	return e.MsgType == MsgTReconnectEvent
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the application-level type tag of an Envelope.
// The stream core never interprets it; the constants below are the types
// used by the bundled tooling (ping, echo peer) and the reconnect marker.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTPing:
		return "ping"
	case MsgTPingResponse:
		return "ping_response"
	case MsgTEvent:
		return "event"
	case MsgTReconnectEvent:
		return "reconnect_event"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// MsgTUnknown is the zero value and never sent deliberately
	MsgTUnknown MessageType = iota

	// MsgTPing and MsgTPingResponse are used by the bundled ping tooling

	MsgTPing
	MsgTPingResponse

	// MsgTEvent is a generic unsolicited notification from the peer

	MsgTEvent

	// MsgTReconnectEvent marks an epoch boundary on the inbound queue.
	// A consumer draining unsolicited messages sees it between the last
	// message of the previous connection and the first of the next one.
	MsgTReconnectEvent MessageType = 255
)
