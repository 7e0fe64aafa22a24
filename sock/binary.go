package sock

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/lib/bitvec"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/frame"
	"io"
)

// checkWidth validates width against the number of words available
func checkWidth(width, words int) error {
	if width <= 0 {
		return fmt.Errorf("%w: %d bits", ErrInvalidWidth, width)
	}
	if n := bitvec.WordCount(width); words < n {
		return fmt.Errorf("%w: %d bits need %d words, got %d", ErrInvalidWidth, width, n, words)
	}
	return nil
}

// Get receives one word frame of width bits into dst[:ceil(width/32)].
//
// It returns nil once a full frame was decoded, ErrNoData if a non-blocking handle has
// no complete frame yet (received bytes stay buffered), ErrEndOfStream for a zero marker
// in the length-prefixed format, and *RecvError on fatal failures.
func (h *Handle) Get(width int, dst []uint32) error {
	if h.closed {
		return ErrClosed
	}
	if err := checkWidth(width, len(dst)); err != nil {
		return err
	}

	size := h.format.FrameSize(width)
	if size > h.readBuf.Cap() {
		return fmt.Errorf("%w: %d byte frame, capacity %d", ErrFrameTooLarge, size, h.readBuf.Cap())
	}

	for {
		unread := h.readBuf.Unread()

		if hs := h.format.HeaderSize(); hs > 0 && len(unread) >= hs {
			if err := h.format.CheckHeader(unread[:hs], width); err != nil {
				if errors.Is(err, ErrEndOfStream) {
					if err := h.readBuf.Consume(hs); err != nil {
						return err
					}
					h.metrics.Received(common.KindDone, hs)
					return ErrEndOfStream
				}
				Logger.Warningf("Out of sync frame on channel %s: %v", h.channel, err)
				return err
			}
		}

		if len(unread) >= size {
			if err := h.format.Decode(unread[:size], width, dst); err != nil {
				return err
			}
			if err := h.readBuf.Consume(size); err != nil {
				return err
			}
			h.metrics.Received(common.KindWords, size)
			return nil
		}

		h.readBuf.Compact()
		if err := h.fill(); err != nil {
			if h.legacyClose(err) {
				h.readBuf.Reset()
				return ErrEndOfStream
			}
			if !errors.Is(err, ErrNoData) {
				h.readBuf.Reset()
			}
			return err
		}
	}
}

// legacyClose reports whether a length-prefixed stream ended with an incomplete
// all-zero marker, which older peers send instead of a full end-of-stream word
func (h *Handle) legacyClose(err error) bool {
	if h.format.HeaderSize() == 0 || !errors.Is(err, io.EOF) {
		return false
	}
	unread := h.readBuf.Unread()
	return len(unread) > 0 && len(unread) < h.format.HeaderSize() &&
		bytes.Count(unread, []byte{0}) == len(unread)
}

// Put sends ceil(width/32) words without any header in a single write.
//
// The write is not continued after a partial send; any failure is returned as *SendError.
func (h *Handle) Put(width int, words []uint32) error {
	if h.closed {
		return ErrClosed
	}
	if err := checkWidth(width, len(words)); err != nil {
		return err
	}

	h.words = frame.PutWords(h.words[:0], words[:bitvec.WordCount(width)])
	return h.send(h.words, common.KindWords)
}

// SignalDone sends the 4 byte zero sentinel acknowledging a consumed value
func (h *Handle) SignalDone() error {
	if h.closed {
		return ErrClosed
	}
	return h.send(frame.Done[:], common.KindDone)
}

// send writes p with a single write call
func (h *Handle) send(p []byte, kind string) error {
	if err := h.setWriteDeadline(); err != nil {
		return &SendError{Channel: h.channel, Expected: len(p), Err: err}
	}

	n, err := h.conn.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		Logger.Warningf("Send on channel %s failed: %v", h.channel, err)
		return &SendError{Channel: h.channel, Written: n, Expected: len(p), Err: err}
	}

	h.metrics.Sent(kind, n)
	return nil
}
