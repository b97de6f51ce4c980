// Package future provides the single-assignment result cell returned to
// requesters and the pending-response registry that routes inbound response
// envelopes to them.
//
// Key Components:
//
//   - Future: A result cell that is created when a request is submitted and
//     resolved exactly once: with the response envelope's type and content,
//     or with an error when the connection drops while the request is
//     pending. The first terminal transition wins; later attempts are no-ops
//     returning false.
//
//   - Collection: Thread-safe mapping from correlation id to Future with
//     atomic remove-and-return semantics. A lookup miss on Resolve is not an
//     error, it signals that the inbound envelope is unsolicited.
//
// Thread Safety:
//
//	All operations on Future and Collection are safe for concurrent use.
//	Put is called from caller goroutines, Resolve and FailAll from the
//	worker; the xsync map and the future's internal mutex make the mixed
//	access safe without external synchronization.
package future
