// Package unix implements the unix:// scheme of the transport package using Unix
// domain sockets, for simulators and peers running on the same machine.
//
// Importing the package registers its connectors with transport.RegisterConnector.
//
// Key Components:
//
//   - clientConnector: Makes one connection attempt per call. Paths starting with @
//     are bound in the Linux abstract namespace and never touch the filesystem.
//
//   - serverConnector: Creates Unix socket listeners. A stale socket file at the
//     listen path is removed first; other file types are left alone.
package unix
