// Package unix implements Unix domain socket transport for the stream client.
// It provides a concrete implementation of the base package's connector
// interface for local inter-process communication.
package unix
