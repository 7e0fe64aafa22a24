// Package frame defines the binary wire formats used to exchange fixed width bit
// vectors. Both formats carry ceil(width/32) little-endian 32-bit words:
//
//   - Raw: the payload words only. The receiver knows the width.
//   - LengthPrefixed: one marker word holding the width, then the payload words.
//     A zero marker signals the end of the stream.
//
// The two formats are incompatible on the wire and are selected per connection.
// The done sentinel (one zero word) is a separate control message and never part of
// a data frame.
package frame
