package future

import (
	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("stream")

// Collection is the pending-response registry: a thread-safe mapping from
// correlation id to the future awaiting that response. Entries are owned by
// the collection from Put until they are resolved, failed or drained.
type Collection struct {
	futures *xsync.MapOf[string, *Future]
}

// NewCollection creates an empty registry
func NewCollection() *Collection {
	return &Collection{
		futures: xsync.NewMapOf[string, *Future](),
	}
}

// Put inserts a future under its correlation id. Ids are drawn from a
// 128 bit random space, so a collision is an invariant violation and
// reported as common.ErrDuplicateCorrelationID.
func (c *Collection) Put(f *Future) error {
	if _, loaded := c.futures.LoadOrStore(f.CorrelationID(), f); loaded {
		return common.ErrDuplicateCorrelationID
	}
	return nil
}

// Resolve removes the entry for the given correlation id and resolves its
// future with the result. The boolean return distinguishes a registry miss:
// false means no future was registered, i.e. the inbound envelope is
// unsolicited, not an error.
func (c *Collection) Resolve(correlationID string, result *Result) bool {
	f, found := c.futures.LoadAndDelete(correlationID)
	if !found {
		return false
	}
	if !f.SetResult(result) {
		// terminal already (disconnect race); entry is gone either way
		Logger.Debugf("duplicate resolution attempt for correlation id %s", correlationID)
	}
	return true
}

// Fail removes the entry for the given correlation id and fails its future.
// Returns false on a registry miss.
func (c *Collection) Fail(correlationID string, err error) bool {
	f, found := c.futures.LoadAndDelete(correlationID)
	if !found {
		return false
	}
	f.SetError(err)
	return true
}

// FailAll drains every entry and fails each future with the given reason.
// Called once per disconnect event before the registry is reused for the
// next connection epoch.
func (c *Collection) FailAll(err error) {
	c.futures.Range(func(id string, _ *Future) bool {
		if f, found := c.futures.LoadAndDelete(id); found {
			f.SetError(err)
		}
		return true
	})
}

// Len returns the number of currently pending futures
func (c *Collection) Len() int {
	return c.futures.Size()
}
