package teststream

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/ValentinKolb/dStream/stream/serializer"
	"github.com/ValentinKolb/dStream/stream/transport/base"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("teststream")

// Handler processes one inbound envelope and returns the reply to send, or
// nil for no reply
type Handler func(env *common.Envelope) *common.Envelope

// EchoHandler replies to every envelope with its own type, correlation id
// and content
func EchoHandler(env *common.Envelope) *common.Envelope {
	return common.NewEnvelope(env.MsgType, env.CorrelationID, env.Content)
}

// Peer is an in-process implementation of the remote side of the stream
// protocol. It accepts identity handshakes, feeds inbound envelopes to a
// handler, can push unsolicited envelopes to connected clients and can drop
// connections on demand to exercise the client's reconnect behavior.
type Peer struct {
	ln      net.Listener
	ser     serializer.IEnvelopeSerializer
	handler Handler

	mu      sync.Mutex
	conns   map[net.Conn]string // conn -> client identity
	writeMu sync.Mutex          // serializes writes across handler and Push

	connected chan string // identity of every newly connected client

	wg sync.WaitGroup
}

// Listen starts a peer on the given address. network is "tcp" or "unix";
// an addr of "127.0.0.1:0" picks a free port (see Addr).
func Listen(network, addr string, ser serializer.IEnvelopeSerializer, handler Handler) (*Peer, error) {
	ln, err := net.Listen(network, addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %v", addr, err)
	}

	p := &Peer{
		ln:        ln,
		ser:       ser,
		handler:   handler,
		conns:     make(map[net.Conn]string),
		connected: make(chan string, 16),
	}

	p.wg.Add(1)
	go p.acceptLoop()

	Logger.Infof("test peer listening on %s", p.Addr())
	return p, nil
}

// Addr returns the address the peer is listening on
func (p *Peer) Addr() string {
	return p.ln.Addr().String()
}

// WaitForConnection blocks until the next client completes its identity
// handshake and returns that identity
func (p *Peer) WaitForConnection(timeout time.Duration) (string, error) {
	select {
	case identity := <-p.connected:
		return identity, nil
	case <-time.After(timeout):
		return "", fmt.Errorf("no client connected within %v", timeout)
	}
}

// ConnectionCount returns the number of currently connected clients
func (p *Peer) ConnectionCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.conns)
}

// Identities returns the identities of all currently connected clients
func (p *Peer) Identities() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	ids := make([]string, 0, len(p.conns))
	for _, id := range p.conns {
		ids = append(ids, id)
	}
	return ids
}

// Push sends an unsolicited envelope to every connected client
func (p *Peer) Push(env *common.Envelope) error {
	p.mu.Lock()
	conns := make([]net.Conn, 0, len(p.conns))
	for conn := range p.conns {
		conns = append(conns, conn)
	}
	p.mu.Unlock()

	if len(conns) == 0 {
		return fmt.Errorf("no client connected")
	}
	for _, conn := range conns {
		if err := p.send(conn, env); err != nil {
			return err
		}
	}
	return nil
}

// DropConnections closes all live client connections without stopping the
// listener, simulating a peer-side disconnect
func (p *Peer) DropConnections() {
	p.mu.Lock()
	conns := make([]net.Conn, 0, len(p.conns))
	for conn := range p.conns {
		conns = append(conns, conn)
	}
	p.mu.Unlock()

	for _, conn := range conns {
		_ = conn.Close()
	}
}

// Close stops the listener, drops all connections and waits for the peer's
// goroutines to terminate
func (p *Peer) Close() error {
	err := p.ln.Close()
	p.DropConnections()
	p.wg.Wait()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (p *Peer) acceptLoop() {
	defer p.wg.Done()
	for {
		conn, err := p.ln.Accept()
		if err != nil {
			return
		}
		p.wg.Add(1)
		go p.serveConn(conn)
	}
}

func (p *Peer) serveConn(conn net.Conn) {
	defer p.wg.Done()

	// Identity handshake: first message carries the client identity
	parts, err := base.ReadMessage(conn)
	if err != nil || len(parts) != 1 {
		_ = conn.Close()
		return
	}
	identity := string(parts[0])

	p.mu.Lock()
	p.conns[conn] = identity
	p.mu.Unlock()

	select {
	case p.connected <- identity:
	default:
	}
	Logger.Infof("client %s connected", identity)

	defer func() {
		p.mu.Lock()
		delete(p.conns, conn)
		p.mu.Unlock()
		_ = conn.Close()
		Logger.Infof("client %s disconnected", identity)
	}()

	for {
		parts, err := base.ReadMessage(conn)
		if err != nil {
			return
		}
		for _, part := range parts {
			env := &common.Envelope{}
			if err := p.ser.Deserialize(part, env); err != nil {
				Logger.Errorf("failed to deserialize envelope from %s: %v", identity, err)
				continue
			}
			if p.handler == nil {
				continue
			}
			if reply := p.handler(env); reply != nil {
				if err := p.send(conn, reply); err != nil {
					return
				}
			}
		}
	}
}

func (p *Peer) send(conn net.Conn, env *common.Envelope) error {
	data, err := p.ser.Serialize(*env)
	if err != nil {
		return err
	}
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	return base.WriteMessage(conn, data)
}
