package base

import (
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/ValentinKolb/dStream/stream/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/stream")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the given endpoint,
	// giving up after timeout (0 = no limit)
	Connect(endpoint string, timeout time.Duration) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// identityLen is the length of the random client identity sent during the handshake
const identityLen = 16

const identityLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// generateIdentity returns a fresh random ASCII client identity
func generateIdentity() string {
	b := make([]byte, identityLen)
	for i := range b {
		b[i] = identityLetters[rand.Intn(len(identityLetters))]
	}
	return string(b)
}

// streamConn implements transport.IStreamConn on top of a net.Conn
type streamConn struct {
	conn     net.Conn
	identity string
	timeout  time.Duration // write timeout, 0 = none

	writeMu sync.Mutex // serializes writes from concurrent senders

	disconnected chan struct{}
	dcOnce       sync.Once
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector IClientConnector
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IStreamTransport {
	return &clientTransport{connector: connector}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IStreamTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) GetName() string {
	return t.connector.GetName()
}

func (t *clientTransport) Dial(config common.ClientConfig) (transport.IStreamConn, error) {
	if config.Endpoint == "" {
		return nil, fmt.Errorf("no endpoint provided")
	}

	// Connect to the endpoint, bounded by the configured timeout
	timeout := time.Duration(config.TimeoutSecond) * time.Second
	conn, err := t.connector.Connect(config.Endpoint, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %v", config.Endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to upgrade connection to %s: %v", config.Endpoint, err)
	}

	c := &streamConn{
		conn:         conn,
		identity:     generateIdentity(),
		timeout:      timeout,
		disconnected: make(chan struct{}),
	}

	// Identity handshake: the first message on a fresh connection carries
	// the client identity as its single part
	if err := c.SendParts([]byte(c.identity)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("identity handshake with %s failed: %v", config.Endpoint, err)
	}

	Logger.Debugf("connected to %s via %s (identity %s)", config.Endpoint, t.connector.GetName(), c.identity)

	return c, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IStreamConn)
// --------------------------------------------------------------------------

func (c *streamConn) Identity() string {
	return c.identity
}

func (c *streamConn) SendParts(parts ...[]byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	// Set write timeout
	if c.timeout > 0 {
		c.conn.SetWriteDeadline(time.Now().Add(c.timeout))
	}

	if err := WriteMessage(c.conn, parts...); err != nil {
		c.notifyDisconnect()
		return err
	}
	return nil
}

func (c *streamConn) RecvParts() ([][]byte, error) {
	// No read deadline: the connection is persistent and may be idle for
	// arbitrarily long between inbound messages
	parts, err := ReadMessage(c.conn)
	if err != nil {
		c.notifyDisconnect()
		return nil, err
	}
	return parts, nil
}

func (c *streamConn) Disconnected() <-chan struct{} {
	return c.disconnected
}

func (c *streamConn) Close() error {
	c.notifyDisconnect()
	return c.conn.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// notifyDisconnect closes the disconnect channel exactly once
func (c *streamConn) notifyDisconnect() {
	c.dcOnce.Do(func() {
		close(c.disconnected)
	})
}
