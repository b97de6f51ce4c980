// Package cmd implements the command-line interface for the dStream
// messaging client. It provides a hierarchical command structure with
// operations for probing a peer and for running a local echo peer.
//
// The package is organized into several subpackages:
//
//   - ping: Send ping envelopes to a peer and print round trip times
//   - listen: Print unsolicited envelopes as they arrive
//   - serve: Start a local echo peer for development and benchmarks
//   - perf: Measure request/response throughput and latency
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See dstream -help for a list of all commands.
package cmd
