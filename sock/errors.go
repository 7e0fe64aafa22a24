package sock

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/frame"
)

var (
	// ErrNoData is returned by non-blocking handles when no complete frame is available yet
	ErrNoData = errors.New("sock: no data available")

	// ErrEndOfStream is returned by Get when a length-prefixed peer sends the zero marker
	ErrEndOfStream = frame.ErrEndOfStream

	// ErrClosed is returned when the handle was closed locally or by the peer
	ErrClosed = errors.New("sock: handle closed")

	// ErrLineTooLong rejects lines that do not fit the buffer capacity
	ErrLineTooLong = errors.New("sock: line exceeds buffer capacity")

	// ErrFrameTooLarge rejects word frames that do not fit the buffer capacity
	ErrFrameTooLarge = errors.New("sock: frame exceeds buffer capacity")

	// ErrFrameMismatch is returned when a length-prefixed marker does not match the width
	ErrFrameMismatch = frame.ErrMismatch

	// ErrInvalidWidth rejects non-positive widths and undersized word slices
	ErrInvalidWidth = errors.New("sock: invalid signal width")
)

// RecvError is a fatal receive failure. The handle must be closed.
type RecvError struct {
	Channel string
	Err     error
}

func (e *RecvError) Error() string {
	return fmt.Sprintf("sock: receive on channel %q failed: %v", e.Channel, e.Err)
}

func (e *RecvError) Unwrap() error {
	return e.Err
}

// SendError is a failed or incomplete send. Written holds the bytes that reached the socket.
type SendError struct {
	Channel  string
	Written  int
	Expected int
	Err      error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("sock: send on channel %q failed after %d of %d bytes: %v", e.Channel, e.Written, e.Expected, e.Err)
}

func (e *SendError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err leaves the handle unusable. The caller should close it
// and open a fresh handle if needed.
func IsFatal(err error) bool {
	var recvErr *RecvError
	var sendErr *SendError
	return errors.As(err, &recvErr) ||
		errors.As(err, &sendErr) ||
		errors.Is(err, ErrClosed) ||
		errors.Is(err, ErrFrameMismatch)
}
