package base

import (
	"bytes"
	"encoding/binary"
	"net"
	"testing"
	"time"

	"github.com/ValentinKolb/dStream/stream/common"
)

// pipeConnector is a test connector backed by net.Pipe. The server side of
// every established connection is handed to the test via the server channel.
type pipeConnector struct {
	server      chan net.Conn
	lastTimeout time.Duration
}

func (p *pipeConnector) GetName() string { return "pipe" }

func (p *pipeConnector) Connect(endpoint string, timeout time.Duration) (net.Conn, error) {
	p.lastTimeout = timeout
	client, server := net.Pipe()
	p.server <- server
	return client, nil
}

func (p *pipeConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) error {
	return nil
}

// TestMessageRoundTrip tests that multi-part messages survive the framing
func TestMessageRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		parts [][]byte
	}{
		{"SinglePart", [][]byte{[]byte("hello")}},
		{"MultiPart", [][]byte{[]byte("first"), []byte("second"), []byte("third")}},
		{"EmptyPart", [][]byte{{}}},
		{"EmptyBetweenParts", [][]byte{[]byte("first"), {}, []byte("third")}},
		{"BinaryPart", [][]byte{{0x00, 0xff, 0x01}}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			client, server := net.Pipe()
			defer client.Close()
			defer server.Close()

			errCh := make(chan error, 1)
			go func() {
				errCh <- WriteMessage(client, tc.parts...)
			}()

			got, err := ReadMessage(server)
			if err != nil {
				t.Fatalf("ReadMessage failed: %v", err)
			}
			if err := <-errCh; err != nil {
				t.Fatalf("WriteMessage failed: %v", err)
			}

			if len(got) != len(tc.parts) {
				t.Fatalf("Expected %d parts, got %d", len(tc.parts), len(got))
			}
			for i := range tc.parts {
				if !bytes.Equal(got[i], tc.parts[i]) {
					t.Errorf("Part %d doesn't match: %q != %q", i, got[i], tc.parts[i])
				}
			}
		})
	}
}

// TestDialHandshake tests that Dial announces a fresh identity as the first
// message on the wire
func TestDialHandshake(t *testing.T) {
	connector := &pipeConnector{server: make(chan net.Conn, 1)}
	trans := NewBaseClientTransport(connector)

	identities := make(chan string, 1)
	go func() {
		server := <-connector.server
		parts, err := ReadMessage(server)
		if err != nil || len(parts) != 1 {
			identities <- ""
			return
		}
		identities <- string(parts[0])
	}()

	conn, err := trans.Dial(common.ClientConfig{Endpoint: "pipe"})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	wireIdentity := <-identities
	if wireIdentity == "" {
		t.Fatal("No identity received on the wire")
	}
	if wireIdentity != conn.Identity() {
		t.Errorf("Wire identity %q does not match conn identity %q", wireIdentity, conn.Identity())
	}
	if len(conn.Identity()) != identityLen {
		t.Errorf("Expected identity of length %d, got %q", identityLen, conn.Identity())
	}
}

// TestFreshIdentityPerDial tests that every connection gets its own identity
func TestFreshIdentityPerDial(t *testing.T) {
	connector := &pipeConnector{server: make(chan net.Conn, 2)}
	trans := NewBaseClientTransport(connector)

	// Drain handshakes in the background
	go func() {
		for server := range connector.server {
			_, _ = ReadMessage(server)
		}
	}()

	conn1, err := trans.Dial(common.ClientConfig{Endpoint: "pipe"})
	if err != nil {
		t.Fatalf("First dial failed: %v", err)
	}
	defer conn1.Close()

	conn2, err := trans.Dial(common.ClientConfig{Endpoint: "pipe"})
	if err != nil {
		t.Fatalf("Second dial failed: %v", err)
	}
	defer conn2.Close()

	if conn1.Identity() == conn2.Identity() {
		t.Errorf("Expected distinct identities, both are %q", conn1.Identity())
	}
}

// TestDisconnectChannel tests that the disconnect channel fires exactly once
// when the peer goes away
func TestDisconnectChannel(t *testing.T) {
	connector := &pipeConnector{server: make(chan net.Conn, 1)}
	trans := NewBaseClientTransport(connector)

	serverConns := make(chan net.Conn, 1)
	go func() {
		server := <-connector.server
		_, _ = ReadMessage(server) // handshake
		serverConns <- server
	}()

	conn, err := trans.Dial(common.ClientConfig{Endpoint: "pipe"})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}

	server := <-serverConns

	select {
	case <-conn.Disconnected():
		t.Fatal("Disconnect channel fired before any failure")
	default:
	}

	// Kill the peer side; the next receive must fail and fire the channel
	server.Close()
	if _, err := conn.RecvParts(); err == nil {
		t.Fatal("Expected receive error after peer close")
	}

	select {
	case <-conn.Disconnected():
	case <-time.After(time.Second):
		t.Fatal("Disconnect channel did not fire")
	}

	// A second failure (explicit close) must not panic on a re-close
	_ = conn.Close()
	select {
	case <-conn.Disconnected():
	default:
		t.Fatal("Disconnect channel no longer closed")
	}
}

// TestReadMessageRejectsExcessivePartCount tests that a corrupt header with
// an oversized part count is rejected instead of driving a huge allocation
func TestReadMessageRejectsExcessivePartCount(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		header := make([]byte, 4)
		binary.BigEndian.PutUint32(header, 1<<24)
		_, _ = client.Write(header)
	}()

	if _, err := ReadMessage(server); err == nil {
		t.Fatal("Expected error for excessive part count")
	}
}

// TestDialForwardsTimeout tests that Dial hands the configured timeout to the
// connector so connect attempts are bounded, not just writes
func TestDialForwardsTimeout(t *testing.T) {
	connector := &pipeConnector{server: make(chan net.Conn, 1)}
	trans := NewBaseClientTransport(connector)

	go func() {
		server := <-connector.server
		_, _ = ReadMessage(server) // handshake
	}()

	conn, err := trans.Dial(common.ClientConfig{Endpoint: "pipe", TimeoutSecond: 3})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()

	if connector.lastTimeout != 3*time.Second {
		t.Errorf("Expected 3s dial timeout, got %v", connector.lastTimeout)
	}
}
