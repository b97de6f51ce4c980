package client

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/ValentinKolb/dStream/stream/future"
	"github.com/ValentinKolb/dStream/stream/serializer"
	"github.com/ValentinKolb/dStream/stream/teststream"
	"github.com/ValentinKolb/dStream/stream/transport/tcp"
	"github.com/ValentinKolb/dStream/stream/transport/unix"
)

const testTimeout = 5 * time.Second

// newTestPair starts an in-process peer with the given handler and a stream
// client connected to it. Both are torn down with the test.
func newTestPair(t *testing.T, handler teststream.Handler) (*teststream.Peer, *Stream) {
	t.Helper()

	ser := serializer.NewBinarySerializer()
	peer, err := teststream.Listen("tcp", "127.0.0.1:0", ser, handler)
	if err != nil {
		t.Fatalf("Failed to start test peer: %v", err)
	}
	t.Cleanup(func() { _ = peer.Close() })

	config := common.DefaultClientConfig(peer.Addr())
	config.TimeoutSecond = 2

	s := New(config, tcp.NewTCPClientTransport(), ser)
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := s.WaitForReady(ctx); err != nil {
		t.Fatalf("Client never became ready: %v", err)
	}
	if _, err := peer.WaitForConnection(testTimeout); err != nil {
		t.Fatalf("Peer saw no connection: %v", err)
	}

	return peer, s
}

// TestSendResolvesFuture covers the plain request/response round trip:
// send a ping, expect the echoed response on the returned future
func TestSendResolvesFuture(t *testing.T) {
	_, s := newTestPair(t, teststream.EchoHandler)

	f, err := s.Send(common.MessageType(7), []byte("ping"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	res, err := f.Result(ctx)
	if err != nil {
		t.Fatalf("Future failed: %v", err)
	}
	if res.MsgType != common.MessageType(7) {
		t.Errorf("Expected message type 7, got %d", res.MsgType)
	}
	if string(res.Content) != "ping" {
		t.Errorf("Expected echoed content, got %q", res.Content)
	}
}

// TestConcurrentSends runs many parallel requests and checks that every
// correlation id sees exactly its own response
func TestConcurrentSends(t *testing.T) {
	_, s := newTestPair(t, teststream.EchoHandler)

	const n = 50
	type outcome struct {
		sent string
		got  string
		err  error
	}
	results := make(chan outcome, n)

	for i := 0; i < n; i++ {
		go func(i int) {
			content := fmt.Sprintf("req-%d", i)
			f, err := s.Send(common.MsgTPing, []byte(content))
			if err != nil {
				results <- outcome{err: err}
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
			defer cancel()
			res, err := f.Result(ctx)
			if err != nil {
				results <- outcome{err: err}
				return
			}
			results <- outcome{sent: content, got: string(res.Content)}
		}(i)
	}

	for i := 0; i < n; i++ {
		r := <-results
		if r.err != nil {
			t.Fatalf("Request failed: %v", r.err)
		}
		if r.sent != r.got {
			t.Errorf("Response misrouted: sent %q, got %q", r.sent, r.got)
		}
	}
}

// TestUnsolicitedDelivery tests that envelopes with unknown correlation ids
// are delivered via Receive unmodified and in arrival order
func TestUnsolicitedDelivery(t *testing.T) {
	peer, s := newTestPair(t, nil)

	for i := 0; i < 3; i++ {
		env := common.NewEnvelope(common.MsgTEvent, fmt.Sprintf("unknown-%d", i), []byte(fmt.Sprintf("event-%d", i)))
		if err := peer.Push(env); err != nil {
			t.Fatalf("Push failed: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	for i := 0; i < 3; i++ {
		env, err := s.Receive(ctx)
		if err != nil {
			t.Fatalf("Receive %d failed: %v", i, err)
		}
		if env.MsgType != common.MsgTEvent {
			t.Errorf("Envelope %d: unexpected type %s", i, env.MsgType)
		}
		if want := fmt.Sprintf("unknown-%d", i); env.CorrelationID != want {
			t.Errorf("Envelope %d: expected correlation id %q, got %q (order violated?)", i, want, env.CorrelationID)
		}
		if want := fmt.Sprintf("event-%d", i); string(env.Content) != want {
			t.Errorf("Envelope %d: expected content %q, got %q", i, want, env.Content)
		}
	}
}

// TestSendBack tests the fire-and-forget reply path: the peer must see the
// caller-supplied correlation id, and no future is registered for it
func TestSendBack(t *testing.T) {
	inbound := make(chan *common.Envelope, 1)
	_, s := newTestPair(t, func(env *common.Envelope) *common.Envelope {
		inbound <- env
		return nil
	})

	if err := s.SendBack(common.MsgTEvent, "peer-chosen-id", []byte("ack")); err != nil {
		t.Fatalf("SendBack failed: %v", err)
	}

	select {
	case env := <-inbound:
		if env.CorrelationID != "peer-chosen-id" {
			t.Errorf("Expected reused correlation id, got %q", env.CorrelationID)
		}
		if string(env.Content) != "ack" {
			t.Errorf("Expected content %q, got %q", "ack", env.Content)
		}
	case <-time.After(testTimeout):
		t.Fatal("Peer never received the reply")
	}

	if s.futures.Len() != 0 {
		t.Errorf("SendBack must not register a future, %d pending", s.futures.Len())
	}
}

// TestDisconnectFailsPendingFutures kills the connection with three requests
// in flight: all three futures must fail with ErrConnectionLost and the
// client must become ready again on its own
func TestDisconnectFailsPendingFutures(t *testing.T) {
	// handler swallows requests so the futures stay pending
	peer, s := newTestPair(t, func(env *common.Envelope) *common.Envelope { return nil })

	pending := make([]*future.Future, 3)
	for i := range pending {
		f, err := s.Send(common.MsgTPing, []byte(fmt.Sprintf("req-%d", i)))
		if err != nil {
			t.Fatalf("Send %d failed: %v", i, err)
		}
		pending[i] = f
	}

	peer.DropConnections()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	for i, f := range pending {
		if _, err := f.Result(ctx); !errors.Is(err, common.ErrConnectionLost) {
			t.Errorf("Future %d: expected ErrConnectionLost, got %v", i, err)
		}
	}

	// the client reconnects on its own
	if err := s.WaitForReady(ctx); err != nil {
		t.Fatalf("Client did not recover: %v", err)
	}
	if _, err := peer.WaitForConnection(testTimeout); err != nil {
		t.Fatalf("Peer saw no reconnect: %v", err)
	}
	if !s.IsReady() {
		t.Error("IsReady must report true after reconnect")
	}
}

// TestReconnectFreshIdentity tests that every connection epoch announces a
// fresh random client identity
func TestReconnectFreshIdentity(t *testing.T) {
	peer, s := newTestPair(t, teststream.EchoHandler)

	first := peer.Identities()
	if len(first) != 1 {
		t.Fatalf("Expected one connected client, got %d", len(first))
	}

	peer.DropConnections()

	second, err := peer.WaitForConnection(testTimeout)
	if err != nil {
		t.Fatalf("Peer saw no reconnect: %v", err)
	}
	if second == first[0] {
		t.Errorf("Expected a fresh identity after reconnect, got %q twice", second)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := s.WaitForReady(ctx); err != nil {
		t.Fatalf("Client did not recover: %v", err)
	}
}

// TestReconnectMarker tests that a consumer draining unsolicited messages
// sees the epoch-boundary marker between the old and the new connection
func TestReconnectMarker(t *testing.T) {
	peer, s := newTestPair(t, nil)

	peer.DropConnections()
	if _, err := peer.WaitForConnection(testTimeout); err != nil {
		t.Fatalf("Peer saw no reconnect: %v", err)
	}

	if err := peer.Push(common.NewEnvelope(common.MsgTEvent, "after-reconnect", nil)); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	env, err := s.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if !env.IsReconnectEvent() {
		t.Fatalf("Expected the reconnect marker first, got %+v", env)
	}

	env, err = s.Receive(ctx)
	if err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if env.CorrelationID != "after-reconnect" {
		t.Errorf("Expected the pushed envelope after the marker, got %+v", env)
	}
}

// TestSendWhileNotReady tests that sends against an unreachable peer fail
// synchronously with ErrConnectionUnavailable and produce no wire traffic
func TestSendWhileNotReady(t *testing.T) {
	// reserve a port and close it again so nothing listens there
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to reserve port: %v", err)
	}
	deadAddr := ln.Addr().String()
	_ = ln.Close()

	config := common.DefaultClientConfig(deadAddr)
	s := New(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
	defer s.Close()

	if s.IsReady() {
		t.Fatal("Client must not be ready without a peer")
	}

	if _, err := s.Send(common.MsgTPing, []byte("ping")); !errors.Is(err, common.ErrConnectionUnavailable) {
		t.Errorf("Expected ErrConnectionUnavailable, got %v", err)
	}
	if err := s.SendBack(common.MsgTEvent, "id", nil); !errors.Is(err, common.ErrConnectionUnavailable) {
		t.Errorf("Expected ErrConnectionUnavailable, got %v", err)
	}
	if s.futures.Len() != 0 {
		t.Errorf("Rejected send must not leave a future behind, %d pending", s.futures.Len())
	}
}

// TestClose tests shutdown semantics: operations after Close fail with
// ErrShutdownInProgress and pending futures are failed rather than leaked
func TestClose(t *testing.T) {
	// handler swallows requests so a future is pending at Close
	_, s := newTestPair(t, func(env *common.Envelope) *common.Envelope { return nil })

	f, err := s.Send(common.MsgTPing, []byte("never answered"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if _, err := f.Result(ctx); !errors.Is(err, common.ErrShutdownInProgress) {
		t.Errorf("Pending future after Close: expected ErrShutdownInProgress, got %v", err)
	}

	if _, err := s.Send(common.MsgTPing, nil); !errors.Is(err, common.ErrShutdownInProgress) {
		t.Errorf("Send after Close: expected ErrShutdownInProgress, got %v", err)
	}
	if err := s.SendBack(common.MsgTEvent, "id", nil); !errors.Is(err, common.ErrShutdownInProgress) {
		t.Errorf("SendBack after Close: expected ErrShutdownInProgress, got %v", err)
	}
	if _, err := s.Receive(ctx); !errors.Is(err, common.ErrShutdownInProgress) {
		t.Errorf("Receive after Close: expected ErrShutdownInProgress, got %v", err)
	}
	if err := s.WaitForReady(ctx); !errors.Is(err, common.ErrShutdownInProgress) {
		t.Errorf("WaitForReady after Close: expected ErrShutdownInProgress, got %v", err)
	}

	// Close is idempotent
	if err := s.Close(); err != nil {
		t.Errorf("Second Close failed: %v", err)
	}
}

// TestUnixTransport runs the round trip over a Unix domain socket
func TestUnixTransport(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "stream.sock")

	ser := serializer.NewBinarySerializer()
	peer, err := teststream.Listen("unix", sock, ser, teststream.EchoHandler)
	if err != nil {
		t.Fatalf("Failed to start unix test peer: %v", err)
	}
	defer peer.Close()

	config := common.DefaultClientConfig(sock)
	s := New(config, unix.NewUnixClientTransport(), ser)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()
	if err := s.WaitForReady(ctx); err != nil {
		t.Fatalf("Client never became ready: %v", err)
	}

	f, err := s.Send(common.MsgTPing, []byte("over unix"))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	res, err := f.Result(ctx)
	if err != nil {
		t.Fatalf("Future failed: %v", err)
	}
	if string(res.Content) != "over unix" {
		t.Errorf("Unexpected content: %q", res.Content)
	}
}
