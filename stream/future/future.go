package future

import (
	"context"
	"sync"

	"github.com/ValentinKolb/dStream/stream/common"
)

// --------------------------------------------------------------------------
// Result Structure
// --------------------------------------------------------------------------

// Result carries the message type and content of the response envelope that
// resolved a future
type Result struct {
	MsgType common.MessageType
	Content []byte
}

// --------------------------------------------------------------------------
// Future Handle
// --------------------------------------------------------------------------

// Future is a single-assignment result cell for one in-flight request.
// It is created by Stream.Send and resolved exactly once, either with the
// response envelope or with an error when the connection is lost.
//
// Resolution policy: the first terminal transition wins. Later SetResult or
// SetError calls are no-ops and return false.
type Future struct {
	correlationID string

	mu     sync.Mutex
	result *Result
	err    error
	done   chan struct{}
}

// New creates a new pending future for the given correlation id
func New(correlationID string) *Future {
	return &Future{
		correlationID: correlationID,
		done:          make(chan struct{}),
	}
}

// CorrelationID returns the correlation id this future is registered under
func (f *Future) CorrelationID() string {
	return f.correlationID
}

// SetResult resolves the future with a response. Returns false if the future
// was already resolved or failed.
func (f *Future) SetResult(result *Result) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		return false
	default:
	}

	f.result = result
	close(f.done)
	return true
}

// SetError fails the future. Returns false if the future was already
// resolved or failed.
func (f *Future) SetError(err error) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	select {
	case <-f.done:
		return false
	default:
	}

	f.err = err
	close(f.done)
	return true
}

// Done returns a channel that is closed once the future is terminal.
// Useful for select-based callers.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the future is terminal or the context is cancelled.
// Use a context with deadline for a bounded wait. A failed future returns
// the error it was failed with (e.g. common.ErrConnectionLost).
func (f *Future) Result(ctx context.Context) (*Result, error) {
	select {
	case <-f.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}
