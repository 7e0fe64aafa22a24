// Package sock exchanges fixed-width word vectors ("signals") and newline delimited
// text lines with a peer process over one persistent TCP or Unix domain socket.
//
// The package is used by a process driving a simulation: the peer usually starts
// at the same time, so Open keeps retrying until the peer listens and then sends the
// channel name as handshake. After that the caller drives the returned Handle with
// either the line codec (WriteLine, ReadLine) or the word codec (Get, Put, SignalDone).
//
// Wait modes:
//
//   - Blocking: receives block in the OS until data arrives.
//
//   - Cooperative: receives wait for the configured timeout, then call the yield hook
//     (see WithYield) and retry. The hook is the only place a handle suspends; it lets
//     a single threaded simulator advance while no data is available.
//
//   - NonBlocking: receives return ErrNoData immediately if no complete frame is
//     available. Partially received frames stay buffered for the next call.
//
// Word frames:
//
// A word frame carries ceil(width/32) little-endian 32-bit words. Get supports the raw
// format (no header) and the length-prefixed format (a marker word before the payload,
// zero marks the end of the stream), selected per handle. Put always sends raw frames
// in a single write; WriteLine continues partial writes until the line is sent.
//
// Errors:
//
// Failures after Open are terminal for the handle (see IsFatal). No reconnection is
// attempted; the caller decides whether to open a fresh handle.
package sock
