// Package teststream provides an in-process peer speaking the stream wire
// protocol. It backs the client test suite and the bundled local echo server
// (see the serve command).
//
// The peer accepts identity handshakes, routes every inbound envelope
// through a Handler, and exposes the levers the tests need: pushing
// unsolicited envelopes, dropping connections to trigger the client's
// reconnect path, and observing connected client identities.
package teststream
