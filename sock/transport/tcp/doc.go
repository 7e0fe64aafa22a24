// Package tcp implements the tcp:// scheme of the transport package.
//
// Importing the package registers its connectors with transport.RegisterConnector.
//
// Key Components:
//
//   - clientConnector: Resolves every address of host:port (both address families) and
//     connects to the candidates in resolver order, keeping the first that succeeds.
//     Cooperative wait policies enable TCP_NODELAY for low latency sends.
//
//   - serverConnector: Creates TCP listeners for the peer hub.
package tcp
