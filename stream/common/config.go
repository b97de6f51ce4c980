package common

import (
	"fmt"
	"strconv"
	"strings"
)

// --------------------------------------------------------------------------
// Stream client configuration struct
// --------------------------------------------------------------------------

// SocketConf holds buffer settings shared by all socket based transports
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific settings. Linger defaults to 0 so that a
// dropped epoch's socket is discarded immediately instead of blocking
// in close while unsent data drains.
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	TCPLingerSec    int
}

// ClientTransportConfig groups the transport level settings
type ClientTransportConfig struct {
	SocketConf SocketConf
	TCPConf    TCPConf
}

// ClientConfig holds all configuration parameters for the stream client
type ClientConfig struct {
	// Endpoint is the peer address (e.g. "localhost:4004" or a socket path)
	Endpoint string

	// TimeoutSecond bounds dial and write operations (0 = no timeout)
	TimeoutSecond int

	// Queue sizes for one connection epoch. Both queues are discarded and
	// recreated on every reconnect.
	SendQueueSize int
	RecvQueueSize int

	// ReconnectBackoffMs is the initial delay between failed connect
	// attempts. The delay doubles (with jitter) up to a fixed cap.
	ReconnectBackoffMs int

	// Transport level settings
	Transport ClientTransportConfig
}

// DefaultClientConfig returns a config for the given endpoint with the
// defaults used by the bundled tooling
func DefaultClientConfig(endpoint string) ClientConfig {
	return ClientConfig{
		Endpoint:           endpoint,
		TimeoutSecond:      10,
		SendQueueSize:      128,
		RecvQueueSize:      128,
		ReconnectBackoffMs: 50,
		Transport: ClientTransportConfig{
			SocketConf: SocketConf{
				WriteBufferSize: 512 * 1024,
				ReadBufferSize:  512 * 1024,
			},
			TCPConf: TCPConf{
				TCPNoDelay:      true,
				TCPKeepAliveSec: 0,
				TCPLingerSec:    0,
			},
		},
	}
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Stream Client")
	addField("Endpoint", c.Endpoint)
	addField("Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))
	addField("Send Queue Size", strconv.Itoa(c.SendQueueSize))
	addField("Recv Queue Size", strconv.Itoa(c.RecvQueueSize))
	addField("Reconnect Backoff", fmt.Sprintf("%d ms", c.ReconnectBackoffMs))

	addSection("Transport")
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.SocketConf.ReadBufferSize))
	addField("TCP NoDelay", fmt.Sprintf("%t", c.Transport.TCPConf.TCPNoDelay))
	addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.Transport.TCPConf.TCPKeepAliveSec))
	addField("TCP Linger", fmt.Sprintf("%d sec", c.Transport.TCPConf.TCPLingerSec))

	return sb.String()
}
