// Package peer implements the listening side of the socket protocol.
//
// A Hub accepts tcp:// or unix:// connections, reads the handshake and hands the
// connection to the handler registered for the channel named in it. Connections for
// unknown channels are logged and closed. A Conn offers the counterparts of the
// opening side's operations: word frames in both wire formats, the end-of-stream
// marker, the done sentinel, lines, and the command words of the synchronization channel.
//
// The opening side sends the handshake without a delimiter, so the name can arrive in
// the same segment as the first data frame. The hub splits such input at the longest
// registered channel name. If one registered name is a prefix of another, a handshake
// that arrives split exactly after the shorter name is routed to the shorter one.
//
// Hub is used by the serve command and as the remote side in tests.
package peer
