package peer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/lib/bitvec"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/frame"
	"io"
	"net"
	"strings"
	"sync"
	"time"
)

var (
	// ErrUnexpectedFrame is returned by RecvDone when the received word is not the done sentinel
	ErrUnexpectedFrame = errors.New("peer: unexpected frame")
)

// Conn is the peer side of one routed connection
type Conn struct {
	id      uint64
	channel string
	conn    net.Conn
	reader  *bufio.Reader
	metrics *common.ChannelMetrics

	closeOnce sync.Once
	closeErr  error
}

// newConn wraps conn; leftover holds bytes received together with the handshake
func newConn(id uint64, channel string, conn net.Conn, leftover []byte) *Conn {
	var r io.Reader = conn
	if len(leftover) > 0 {
		r = io.MultiReader(bytes.NewReader(leftover), conn)
	}
	return &Conn{
		id:      id,
		channel: channel,
		conn:    conn,
		reader:  bufio.NewReader(r),
		metrics: common.NewChannelMetrics(channel),
	}
}

// Channel returns the channel name of the handshake
func (c *Conn) Channel() string { return c.channel }

// RemoteAddr returns the address of the opening side
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// SetDeadline sets the read and write deadline of the connection
func (c *Conn) SetDeadline(t time.Time) error { return c.conn.SetDeadline(t) }

// Read reads unframed bytes, starting with any bytes received along with the handshake
func (c *Conn) Read(p []byte) (int, error) {
	return c.reader.Read(p)
}

// Write sends p unframed
func (c *Conn) Write(p []byte) (int, error) {
	return c.conn.Write(p)
}

// --------------------------------------------------------------------------
// Word frames
// --------------------------------------------------------------------------

// SendWords sends one word frame of width bits in the given format
func (c *Conn) SendWords(format frame.Format, width int, words []uint32) error {
	if width <= 0 || len(words) < bitvec.WordCount(width) {
		return fmt.Errorf("invalid frame: width %d with %d words", width, len(words))
	}
	buf := format.Encode(nil, width, words)
	if _, err := c.conn.Write(buf); err != nil {
		return err
	}
	c.metrics.Sent(common.KindWords, len(buf))
	return nil
}

// SendEndOfStream sends the zero marker of the length-prefixed format
func (c *Conn) SendEndOfStream() error {
	buf := frame.EndOfStream()
	if _, err := c.conn.Write(buf); err != nil {
		return err
	}
	c.metrics.Sent(common.KindDone, len(buf))
	return nil
}

// RecvWords reads one raw word frame of width bits into words
func (c *Conn) RecvWords(width int, words []uint32) error {
	n := bitvec.WordCount(width)
	if width <= 0 || len(words) < n {
		return fmt.Errorf("invalid frame: width %d with %d words", width, len(words))
	}
	buf := make([]byte, n*frame.WordSize)
	if _, err := io.ReadFull(c.reader, buf); err != nil {
		return err
	}
	c.metrics.Received(common.KindWords, len(buf))
	return frame.ReadWords(buf, words[:n])
}

// RecvDone reads the done sentinel
func (c *Conn) RecvDone() error {
	var buf [frame.WordSize]byte
	if _, err := io.ReadFull(c.reader, buf[:]); err != nil {
		return err
	}
	if buf != frame.Done {
		return fmt.Errorf("%w: expected done sentinel, got % x", ErrUnexpectedFrame, buf)
	}
	c.metrics.Received(common.KindDone, len(buf))
	return nil
}

// SendCommand sends a command word carrying arg
func (c *Conn) SendCommand(cmd Command, arg uint32) error {
	buf, err := cmd.Bytes(arg)
	if err != nil {
		return err
	}
	if _, err := c.conn.Write(buf); err != nil {
		return err
	}
	c.metrics.Sent(common.KindWords, len(buf))
	return nil
}

// --------------------------------------------------------------------------
// Lines
// --------------------------------------------------------------------------

// ReadLine reads one line and strips the '\n' terminator
func (c *Conn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	c.metrics.Received(common.KindLine, len(line))
	return strings.TrimSuffix(line, "\n"), nil
}

// WriteLine sends text followed by '\n'
func (c *Conn) WriteLine(text string) error {
	buf := make([]byte, 0, len(text)+1)
	buf = append(buf, text...)
	buf = append(buf, '\n')
	if _, err := c.conn.Write(buf); err != nil {
		return err
	}
	c.metrics.Sent(common.KindLine, len(buf))
	return nil
}

// Close closes the connection. It is safe to call Close more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}
