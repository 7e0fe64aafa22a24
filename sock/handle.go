package sock

import (
	"github.com/ValentinKolb/svsock/sock/buffer"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/frame"
	"net"
	"runtime"
	"syscall"
	"time"
)

// Handle owns one connection: the socket, the read buffer and the write scratch buffer.
//
// A handle must not be used from two goroutines at the same time. Close may be called
// from the yield hook; calling Close from another goroutine while an operation is in
// flight is not supported.
type Handle struct {
	conn    net.Conn
	raw     syscall.RawConn // nil if the connection exposes no file descriptor
	channel string

	policy       common.WaitPolicy
	format       frame.Format
	yield        func()
	writeTimeout time.Duration

	readBuf *buffer.Buffer
	scratch []byte // one outgoing line, capacity C
	words   []byte // one outgoing word frame

	metrics *common.ChannelMetrics
	closed  bool
}

// newHandle wraps an established connection whose handshake was sent
func newHandle(conn net.Conn, channel string, cfg common.ClientConfig, o options) *Handle {
	capacity := cfg.EffectiveBufferSize()

	h := &Handle{
		conn:         conn,
		channel:      channel,
		policy:       o.policy,
		format:       o.format,
		yield:        o.yield,
		writeTimeout: cfg.EffectiveWriteTimeout(o.policy),
		readBuf:      buffer.New(capacity),
		scratch:      make([]byte, 0, capacity),
		metrics:      common.NewChannelMetrics(channel),
	}

	if h.yield == nil {
		h.yield = runtime.Gosched
	}

	if sc, ok := conn.(syscall.Conn); ok {
		if raw, err := sc.SyscallConn(); err == nil {
			h.raw = raw
		}
	}

	return h
}

// Channel returns the channel name sent in the handshake
func (h *Handle) Channel() string { return h.channel }

// Policy returns the wait policy of the handle
func (h *Handle) Policy() common.WaitPolicy { return h.policy }

// Format returns the binary wire format used by Get
func (h *Handle) Format() frame.Format { return h.format }

// Capacity returns the read buffer capacity C
func (h *Handle) Capacity() int { return h.readBuf.Cap() }

// Buffered returns the number of received bytes not consumed by a frame yet
func (h *Handle) Buffered() int { return h.readBuf.Len() }

// LocalAddr returns the local address of the socket
func (h *Handle) LocalAddr() net.Addr { return h.conn.LocalAddr() }

// Closed reports whether Close was called
func (h *Handle) Closed() bool { return h.closed }

// Close releases the socket. Calling Close more than once is safe;
// only the first call closes the socket.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.readBuf.Reset()
	Logger.Debugf("Closing channel %s", h.channel)
	return h.conn.Close()
}

// setWriteDeadline applies the write timeout before a send
func (h *Handle) setWriteDeadline() error {
	if h.writeTimeout <= 0 {
		return nil
	}
	return h.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
}
