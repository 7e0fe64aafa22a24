// Package cmd implements the command-line interface of svsock. It provides a
// peer server and client commands to exchange signal values and lines with it.
//
// The package is organized into several subpackages:
//
//   - serve: Start a peer hub that routes connections to channel handlers
//   - signal: Receive, send and acknowledge word frames (get, put, done)
//   - line: Send and receive newline delimited text
//   - perf: Measure round trip latency against a loop or echo channel
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// All flags can also be set as environment variables SVSOCK_<FLAG> (e.g.
// SVSOCK_ENDPOINT=unix:///tmp/sim.sock). See svsock -help for a list of all commands.
package cmd
