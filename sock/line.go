package sock

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"io"
)

// WriteLine sends text followed by '\n'.
//
// Lines of C-1 bytes or more are rejected with ErrLineTooLong before anything is sent.
// Partial sends are continued with the unsent rest until the whole frame is written.
func (h *Handle) WriteLine(text string) error {
	if h.closed {
		return ErrClosed
	}
	if len(text) >= cap(h.scratch)-1 {
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrLineTooLong, len(text), cap(h.scratch))
	}

	h.scratch = append(h.scratch[:0], text...)
	h.scratch = append(h.scratch, '\n')

	if err := h.setWriteDeadline(); err != nil {
		return &SendError{Channel: h.channel, Expected: len(h.scratch), Err: err}
	}

	sent := 0
	for sent < len(h.scratch) {
		n, err := h.conn.Write(h.scratch[sent:])
		sent += n
		if err == nil && n == 0 {
			err = io.ErrShortWrite
		}
		if err != nil {
			Logger.Warningf("Send on channel %s failed: %v", h.channel, err)
			return &SendError{Channel: h.channel, Written: sent, Expected: len(h.scratch), Err: err}
		}
	}

	h.metrics.Sent(common.KindLine, sent)
	return nil
}

// ReadLine returns the next line without its '\n' terminator.
//
// Bytes received after the terminator stay buffered for the next call. A line that
// does not fit the buffer fails with ErrLineTooLong. Non-blocking handles return
// ErrNoData and keep partial lines buffered. On receive errors the buffer is dropped.
func (h *Handle) ReadLine() (string, error) {
	if h.closed {
		return "", ErrClosed
	}

	for {
		unread := h.readBuf.Unread()
		if i := bytes.IndexByte(unread, '\n'); i >= 0 {
			line := string(unread[:i])
			if err := h.readBuf.Consume(i + 1); err != nil {
				return "", err
			}
			h.metrics.Received(common.KindLine, i+1)
			return line, nil
		}

		h.readBuf.Compact()
		if h.readBuf.Full() {
			h.readBuf.Reset()
			return "", fmt.Errorf("%w: no terminator within %d bytes", ErrLineTooLong, h.readBuf.Cap())
		}

		if err := h.fill(); err != nil {
			if !errors.Is(err, ErrNoData) {
				h.readBuf.Reset()
			}
			return "", err
		}
	}
}
