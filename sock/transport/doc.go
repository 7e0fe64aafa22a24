// Package transport resolves endpoint addresses into connected sockets. It defines
// the scheme agnostic contract that the tcp and unix packages implement, so that the
// handle layer never deals with address families directly.
//
// The package focuses on:
//   - Parsing scheme://rest addresses into an Endpoint (tcp://host:port, unix://path)
//   - Classifying connection failures as InvalidAddress or Unreachable
//   - Dispatching connect and listen calls to the connector registered for a scheme
//
// Key Components:
//
//   - Endpoint: Tagged union of a tcp host/port pair and a unix socket path. Unix paths
//     starting with @ are placed in the abstract namespace (Linux only).
//
//   - IClientConnector / IServerConnector: Interfaces for scheme specific operations.
//     Importing the tcp or unix package registers its connectors.
//
//   - ResolveAndConnect: Connects to an endpoint and applies the socket options of the
//     wait policy. It never retries; retrying is up to the caller.
package transport
