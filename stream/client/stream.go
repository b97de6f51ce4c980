package client

import (
	"context"

	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/ValentinKolb/dStream/stream/future"
	"github.com/ValentinKolb/dStream/stream/serializer"
	"github.com/ValentinKolb/dStream/stream/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("stream")

// Stream is the client façade for the asynchronous, correlation-based
// request/response connection to a single remote peer. It survives peer
// disconnects transparently: all in-flight futures are failed, the
// connection is re-established with a fresh identity, and callers only
// observe a transient "not ready" window.
type Stream struct {
	config  common.ClientConfig
	futures *future.Collection
	worker  *worker
}

// New creates a stream client for the configured peer and starts its
// background worker. The worker keeps reconnecting until Close is called.
//
// Usage:
//
//	s := client.New(
//		common.DefaultClientConfig("localhost:4004"),
//		tcp.NewTCPClientTransport(),
//		serializer.NewBinarySerializer(),
//	)
//	defer s.Close()
//
//	if err := s.WaitForReady(ctx); err != nil { ... }
//	f, err := s.Send(common.MsgTPing, []byte("ping"))
//	res, err := f.Result(ctx)
func New(
	config common.ClientConfig,
	trans transport.IStreamTransport,
	ser serializer.IEnvelopeSerializer,
) *Stream {
	futures := future.NewCollection()
	w := newWorker(config, trans, ser, futures)

	Logger.Infof("created stream client for %s via %s", config.Endpoint, trans.GetName())

	go w.run()

	return &Stream{
		config:  config,
		futures: futures,
		worker:  w,
	}
}

// Send submits a request to the peer and returns the future that resolves
// with its response. A fresh correlation id is generated per call.
//
// Fails immediately with common.ErrConnectionUnavailable while the client is
// not ready (no message is sent), and with common.ErrShutdownInProgress
// after Close.
func (s *Stream) Send(msgType common.MessageType, content []byte) (*future.Future, error) {
	select {
	case <-s.worker.shutdownCh:
		return nil, common.ErrShutdownInProgress
	default:
	}
	if !s.worker.isReady() {
		return nil, common.ErrConnectionUnavailable
	}

	env := common.NewEnvelope(msgType, generateCorrelationID(), content)
	f := future.New(env.CorrelationID)
	if err := s.futures.Put(f); err != nil {
		return nil, err
	}

	if err := s.worker.enqueue(env); err != nil {
		// never handed to the wire, so the future fails here
		s.futures.Fail(env.CorrelationID, err)
		return nil, err
	}
	return f, nil
}

// SendBack submits a fire-and-forget reply to a previously received
// unsolicited envelope, reusing the caller-supplied correlation id. No
// future is registered. Same readiness preconditions as Send.
func (s *Stream) SendBack(msgType common.MessageType, correlationID string, content []byte) error {
	select {
	case <-s.worker.shutdownCh:
		return common.ErrShutdownInProgress
	default:
	}
	if !s.worker.isReady() {
		return common.ErrConnectionUnavailable
	}

	return s.worker.enqueue(common.NewEnvelope(msgType, correlationID, content))
}

// Receive blocks until the next unsolicited envelope arrives. Delivery
// matches socket arrival order; after a reconnect an epoch-boundary marker
// (env.IsReconnectEvent() == true) is delivered between the messages of the
// old and the new connection.
//
// Undelivered unsolicited envelopes of a dropped connection are discarded
// with their epoch.
func (s *Stream) Receive(ctx context.Context) (*common.Envelope, error) {
	return s.worker.receive(ctx)
}

// WaitForReady blocks until the client has a live connection or the context
// is cancelled
func (s *Stream) WaitForReady(ctx context.Context) error {
	return s.worker.waitForReady(ctx)
}

// IsReady reports whether the client currently has a live connection
func (s *Stream) IsReady() bool {
	return s.worker.isReady()
}

// Close requests orderly shutdown: admission stops, envelopes already queued
// for sending are flushed to the wire, all still-pending futures fail with
// common.ErrShutdownInProgress and the transport is released. Close returns
// once the worker has terminated. Terminal; the client cannot be reused.
func (s *Stream) Close() error {
	s.worker.shutdown()
	Logger.Infof("stream client for %s closed", s.config.Endpoint)
	return nil
}
