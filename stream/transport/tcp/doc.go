// Package tcp implements TCP socket-based transport for the stream client.
// It provides a concrete implementation of the base package's connector
// interface optimized for TCP connections.
//
// The connector applies the TCP settings from the client configuration when
// a connection is established: linger (0 by default, so a dead epoch's socket
// is discarded without draining), NoDelay, keepalive and kernel buffer sizes.
package tcp
