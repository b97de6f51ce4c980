package client

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/ValentinKolb/dStream/stream/future"
	"github.com/ValentinKolb/dStream/stream/serializer"
	"github.com/ValentinKolb/dStream/stream/transport"
)

const (
	defaultQueueSize = 128
	maxBackoffMs     = 5000
)

// epoch is one connection lifetime: a fresh socket with a fresh identity,
// fresh outbound/inbound queues and its own cancellation context. Nothing
// of an epoch survives a disconnect.
type epoch struct {
	conn   transport.IStreamConn
	sendQ  chan *common.Envelope
	recvQ  chan *common.Envelope
	ctx    context.Context
	cancel context.CancelFunc
}

// worker owns the connection and drives the three loops (send, receive,
// monitor) of the current epoch. It runs for the lifetime of the stream
// client, restarting socket and queues on every disconnect.
type worker struct {
	config     common.ClientConfig
	transport  transport.IStreamTransport
	serializer serializer.IEnvelopeSerializer
	futures    *future.Collection

	ready atomic.Bool

	mu      sync.Mutex
	readyCh chan struct{} // closed when readiness flips to true, then replaced
	cur     *epoch        // nil while disconnected
	curCh   chan struct{} // closed when cur changes, then replaced

	shutdownOnce sync.Once
	shutdownCh   chan struct{}
	doneCh       chan struct{} // closed when run has terminated
}

func newWorker(
	config common.ClientConfig,
	trans transport.IStreamTransport,
	ser serializer.IEnvelopeSerializer,
	futures *future.Collection,
) *worker {
	return &worker{
		config:     config,
		transport:  trans,
		serializer: ser,
		futures:    futures,
		readyCh:    make(chan struct{}),
		curCh:      make(chan struct{}),
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// --------------------------------------------------------------------------
// Outer loop and connection state machine
// --------------------------------------------------------------------------

// run is the worker's outer loop: connect, run one epoch until it dies,
// reconnect. Runs on its own goroutine; terminates only on shutdown.
func (w *worker) run() {
	defer close(w.doneCh)

	firstTime := true
	initialBackoffMs := w.config.ReconnectBackoffMs
	if initialBackoffMs <= 0 {
		initialBackoffMs = 50
	}
	backoffMs := initialBackoffMs

	for {
		select {
		case <-w.shutdownCh:
			return
		default:
		}

		conn, err := w.transport.Dial(w.config)
		if err != nil {
			Logger.Warningf("failed to connect to %s: %v", w.config.Endpoint, err)

			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			select {
			case <-time.After(time.Duration(jitter) * time.Millisecond):
			case <-w.shutdownCh:
				return
			}
			if backoffMs < maxBackoffMs {
				backoffMs *= 2
			}
			continue
		}
		backoffMs = initialBackoffMs

		ctx, cancel := context.WithCancel(context.Background())
		ep := &epoch{
			conn:   conn,
			sendQ:  make(chan *common.Envelope, queueSize(w.config.SendQueueSize)),
			recvQ:  make(chan *common.Envelope, queueSize(w.config.RecvQueueSize)),
			ctx:    ctx,
			cancel: cancel,
		}

		if !firstTime {
			// Epoch-boundary marker, queued before the new loops start so a
			// consumer sees the reconnect in-order between old and new messages
			ep.recvQ <- common.NewReconnectEvent()
			metricReconnects.Inc()
		}

		go w.sendLoop(ep)
		go w.recvLoop(ep)

		w.installEpoch(ep)
		w.setReady(true)
		Logger.Infof("connected to %s (identity %s)", w.config.Endpoint, conn.Identity())

		shutdown := w.monitor(ep)

		firstTime = false
		if shutdown {
			return
		}
	}
}

// monitor is the third loop of an epoch. It blocks until the connection is
// lost or shutdown is requested, then tears the epoch down as a unit.
// Returns true if the worker is shutting down.
func (w *worker) monitor(ep *epoch) bool {
	select {
	case <-ep.conn.Disconnected():
		Logger.Warningf("connection to %s lost", w.config.Endpoint)
		w.setReady(false)
		w.clearEpoch()

		// Cancel before failing the registry: once the context is dead no
		// send can slip an envelope (and its future) into this epoch after
		// the drain below.
		ep.cancel()
		_ = ep.conn.Close()

		pending := w.futures.Len()
		w.futures.FailAll(common.ErrConnectionLost)
		metricFuturesFailed.Add(pending)
		return false

	case <-w.shutdownCh:
		w.setReady(false)
		w.clearEpoch()

		// Flush what was already queued, then fail whatever still waits for
		// a response - it can never arrive once the socket is gone
		w.drainOutbound(ep)
		ep.cancel()
		_ = ep.conn.Close()

		w.futures.FailAll(common.ErrShutdownInProgress)
		return true
	}
}

// sendLoop pulls envelopes from the outbound queue, serializes and writes
// them. Runs once per epoch.
func (w *worker) sendLoop(ep *epoch) {
	for {
		select {
		case env := <-ep.sendQ:
			data, err := w.serializer.Serialize(*env)
			if err != nil {
				Logger.Errorf("failed to serialize outbound envelope: %v", err)
				if env.CorrelationID != "" {
					w.futures.Fail(env.CorrelationID, err)
				}
				continue
			}
			if err := ep.conn.SendParts(data); err != nil {
				// the conn fires its disconnect channel, the monitor takes over
				Logger.Debugf("send to %s failed: %v", w.config.Endpoint, err)
				return
			}
			metricMessagesSent.Inc()
		case <-ep.ctx.Done():
			return
		}
	}
}

// recvLoop reads inbound envelopes and routes them: correlation id hit
// resolves the pending future, miss means unsolicited and goes to the
// inbound queue. Runs once per epoch.
func (w *worker) recvLoop(ep *epoch) {
	for {
		parts, err := ep.conn.RecvParts()
		if err != nil {
			if ep.ctx.Err() == nil {
				Logger.Debugf("receive from %s failed: %v", w.config.Endpoint, err)
			}
			return
		}

		for _, part := range parts {
			env := &common.Envelope{}
			if err := w.serializer.Deserialize(part, env); err != nil {
				Logger.Errorf("failed to deserialize inbound envelope: %v", err)
				continue
			}
			metricMessagesReceived.Inc()

			// Response for a pending request?
			if env.CorrelationID != "" && w.futures.Resolve(env.CorrelationID, &future.Result{
				MsgType: env.MsgType,
				Content: env.Content,
			}) {
				continue
			}

			// Registry miss: this is an unsolicited message
			metricUnsolicited.Inc()
			select {
			case ep.recvQ <- env:
			case <-ep.ctx.Done():
				return
			}
		}
	}
}

// --------------------------------------------------------------------------
// Cross-domain handoff (called from caller goroutines)
// --------------------------------------------------------------------------

// enqueue hands an envelope to the current epoch's outbound queue
func (w *worker) enqueue(env *common.Envelope) error {
	ep, _ := w.currentEpoch()
	if ep == nil || ep.ctx.Err() != nil {
		return common.ErrConnectionUnavailable
	}

	select {
	case ep.sendQ <- env:
		return nil
	case <-ep.ctx.Done():
		return common.ErrConnectionUnavailable
	case <-w.shutdownCh:
		return common.ErrShutdownInProgress
	}
}

// receive delivers the next unsolicited envelope, following the inbound
// queue across epoch boundaries
func (w *worker) receive(ctx context.Context) (*common.Envelope, error) {
	for {
		select {
		case <-w.shutdownCh:
			return nil, common.ErrShutdownInProgress
		default:
		}

		ep, changed := w.currentEpoch()
		if ep == nil {
			// no epoch right now, wait for the next one
			select {
			case <-changed:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-w.shutdownCh:
				return nil, common.ErrShutdownInProgress
			}
		}

		select {
		case env := <-ep.recvQ:
			return env, nil
		case <-ep.ctx.Done():
			// epoch died, re-fetch; its undelivered envelopes are discarded
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-w.shutdownCh:
			return nil, common.ErrShutdownInProgress
		}
	}
}

// --------------------------------------------------------------------------
// Readiness
// --------------------------------------------------------------------------

func (w *worker) isReady() bool {
	return w.ready.Load()
}

func (w *worker) setReady(ready bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ready.Load() == ready {
		return
	}
	w.ready.Store(ready)
	if ready {
		close(w.readyCh)
	} else {
		w.readyCh = make(chan struct{})
	}
}

func (w *worker) waitForReady(ctx context.Context) error {
	for {
		w.mu.Lock()
		ready := w.ready.Load()
		ch := w.readyCh
		w.mu.Unlock()

		if ready {
			return nil
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		case <-w.shutdownCh:
			return common.ErrShutdownInProgress
		}
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// shutdown requests orderly teardown and blocks until the worker terminated
func (w *worker) shutdown() {
	w.shutdownOnce.Do(func() {
		close(w.shutdownCh)
	})
	<-w.doneCh
}

// drainOutbound flushes already-queued envelopes to the wire, best effort
func (w *worker) drainOutbound(ep *epoch) {
	for {
		select {
		case env := <-ep.sendQ:
			data, err := w.serializer.Serialize(*env)
			if err != nil {
				continue
			}
			if err := ep.conn.SendParts(data); err != nil {
				return
			}
			metricMessagesSent.Inc()
		default:
			return
		}
	}
}

func (w *worker) installEpoch(ep *epoch) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cur = ep
	close(w.curCh)
	w.curCh = make(chan struct{})
}

func (w *worker) clearEpoch() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cur = nil
	close(w.curCh)
	w.curCh = make(chan struct{})
}

// currentEpoch returns the live epoch (nil while disconnected) and a channel
// that is closed on the next epoch change
func (w *worker) currentEpoch() (*epoch, <-chan struct{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cur, w.curCh
}

func queueSize(configured int) int {
	if configured <= 0 {
		return defaultQueueSize
	}
	return configured
}
