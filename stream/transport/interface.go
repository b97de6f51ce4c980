package transport

import (
	"github.com/ValentinKolb/dStream/stream/common"
)

// --------------------------------------------------------------------------
// Stream Transport
// --------------------------------------------------------------------------

// IStreamTransport is the interface for the client side of an
// identity-addressed, message-oriented transport. Dial establishes one
// connection; the stream client dials again for every connection epoch.
type IStreamTransport interface {
	// Dial connects to the peer configured in the client config and
	// performs the identity handshake. Every call produces a fresh
	// connection with a fresh random client identity.
	Dial(config common.ClientConfig) (IStreamConn, error)
	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// IStreamConn is a single established connection to the peer. It supports
// multi-part message send/receive and a side-channel disconnect notification.
//
// SendParts is safe for concurrent use; RecvParts must only be called from
// a single goroutine.
type IStreamConn interface {
	// Identity returns the random client identity sent during the handshake
	Identity() string
	// SendParts sends one multi-part message
	SendParts(parts ...[]byte) error
	// RecvParts blocks until the next complete multi-part message arrives
	RecvParts() ([][]byte, error)
	// Disconnected returns a channel that is closed when the connection is
	// lost (or closed). It fires at most once per connection.
	Disconnected() <-chan struct{}
	// Close tears the connection down. The configured linger applies.
	Close() error
}
