package sock

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"golang.org/x/sys/unix"
	"io"
	"os"
	"time"
)

// nonBlockingPoll is the read deadline used for non-blocking receives on
// connections that expose no file descriptor
const nonBlockingPoll = time.Millisecond

// recvClass is the outcome class of a single receive call
type recvClass int

const (
	recvOK recvClass = iota
	recvWouldBlock
	recvInterrupted
	recvFatal
)

// classify maps a receive error to its class
func classify(err error) recvClass {
	switch {
	case err == nil:
		return recvOK
	case errors.Is(err, os.ErrDeadlineExceeded),
		errors.Is(err, unix.EAGAIN),
		errors.Is(err, unix.EWOULDBLOCK):
		return recvWouldBlock
	case errors.Is(err, unix.EINTR):
		return recvInterrupted
	default:
		return recvFatal
	}
}

// recvOnce issues exactly one receive into p according to the wait mode
func (h *Handle) recvOnce(p []byte) (int, error) {
	switch h.policy.Mode {
	case common.WaitCooperative:
		if err := h.conn.SetReadDeadline(time.Now().Add(h.policy.Timeout)); err != nil {
			return 0, err
		}
		return h.conn.Read(p)

	case common.WaitNonBlocking:
		if h.raw == nil {
			if err := h.conn.SetReadDeadline(time.Now().Add(nonBlockingPoll)); err != nil {
				return 0, err
			}
			return h.conn.Read(p)
		}

		// one read(2) on the non-blocking descriptor, never parked in the poller
		var n int
		var readErr error
		if err := h.raw.Read(func(fd uintptr) bool {
			n, readErr = unix.Read(int(fd), p)
			return true
		}); err != nil {
			return 0, err
		}
		if readErr != nil {
			return 0, readErr
		}
		if n == 0 && len(p) > 0 {
			return 0, io.EOF
		}
		return n, nil

	default:
		return h.conn.Read(p)
	}
}

// fill receives at least one byte into the read buffer.
//
// Would-block results are absorbed here: blocking handles retry, cooperative handles
// call the yield hook and retry, non-blocking handles return ErrNoData. Interrupted
// receives are retried at once. Every other failure is returned as *RecvError.
func (h *Handle) fill() error {
	for {
		if h.closed {
			return ErrClosed
		}

		n, err := h.readBuf.Fill(h.recvOnce)
		if n > 0 {
			return nil
		}

		switch classify(err) {
		case recvOK, recvInterrupted:
			continue

		case recvWouldBlock:
			switch h.policy.Mode {
			case common.WaitNonBlocking:
				return ErrNoData
			case common.WaitCooperative:
				h.metrics.Yields.Inc()
				h.yield()
			}
			continue

		default:
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: %w", ErrClosed, io.EOF)
			}
			Logger.Warningf("Receive on channel %s failed: %v", h.channel, err)
			return &RecvError{Channel: h.channel, Err: err}
		}
	}
}
