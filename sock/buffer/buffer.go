// Package buffer implements the bounded read buffer of a connection handle.
//
// A Buffer holds bytes received from the socket that have not been consumed yet.
// Bytes belonging to the next frame stay in the buffer when a frame is consumed,
// so that frames arriving bundled in one receive are delivered one by one.
//
// The invariant 0 <= consumed <= filled <= Cap() holds after every operation;
// operations that would break it fail with ErrOverflow instead.
package buffer

import (
	"errors"
	"fmt"
)

var (
	ErrOverflow = errors.New("buffer: capacity exceeded")
)

// Buffer is a fixed capacity byte buffer with consumed/filled offsets
type Buffer struct {
	data     []byte
	consumed int // start of unread data
	filled   int // end of valid data
}

// New creates a buffer with the given capacity
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Cap returns the fixed capacity
func (b *Buffer) Cap() int { return len(b.data) }

// Len returns the number of unread bytes
func (b *Buffer) Len() int { return b.filled - b.consumed }

// Full reports whether no byte can be appended without compacting
func (b *Buffer) Full() bool { return b.filled == len(b.data) }

// Unread returns the unread region. The slice is only valid until the next mutating call.
func (b *Buffer) Unread() []byte {
	return b.data[b.consumed:b.filled]
}

// Compact moves the unread bytes to offset 0
func (b *Buffer) Compact() {
	if b.consumed == 0 {
		return
	}
	n := copy(b.data, b.data[b.consumed:b.filled])
	b.consumed = 0
	b.filled = n
}

// Append copies p after the current fill point
func (b *Buffer) Append(p []byte) error {
	if len(p) > len(b.data)-b.filled {
		return fmt.Errorf("%w: append %d bytes with %d free", ErrOverflow, len(p), len(b.data)-b.filled)
	}
	b.filled += copy(b.data[b.filled:], p)
	return nil
}

// Fill calls recv once with the free region after the fill point and
// accounts the received bytes. recv follows the io.Reader contract.
func (b *Buffer) Fill(recv func(p []byte) (int, error)) (int, error) {
	if b.Full() {
		return 0, ErrOverflow
	}
	n, err := recv(b.data[b.filled:])
	if n < 0 || n > len(b.data)-b.filled {
		return 0, fmt.Errorf("%w: receive reported %d bytes", ErrOverflow, n)
	}
	b.filled += n
	return n, err
}

// Consume marks n unread bytes as consumed
func (b *Buffer) Consume(n int) error {
	if n < 0 || n > b.Len() {
		return fmt.Errorf("%w: consume %d of %d unread bytes", ErrOverflow, n, b.Len())
	}
	b.consumed += n
	if b.consumed == b.filled {
		b.consumed, b.filled = 0, 0
	}
	return nil
}

// Reset drops all buffered bytes
func (b *Buffer) Reset() {
	b.consumed, b.filled = 0, 0
}
