// Package common provides configuration structures and utilities shared across
// the socket transport, the peer hub and the command line interface.
//
// The package focuses on:
//   - Client and server configuration, including the wait policy derived from a timeout
//   - Custom logging implementation integrated with Dragonboat's logger facade
//   - Per-channel transport counters exported in Prometheus format
//
// Key Components:
//
//   - ClientConfig: Configuration of the opening side. TimeoutSecond selects the wait
//     mode of every receive: negative blocks, zero never waits and a positive value waits
//     that many seconds before handing control to the yield hook of the host simulator.
//
//   - WaitPolicy: The effective wait mode of one handle.
//
//   - ServerConfig: Configuration of the listening peer.
//
//   - ChannelMetrics: Frame and byte counters of one logical channel.
package common
