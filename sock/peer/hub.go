package peer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
	"net"
	"sync"
	"sync/atomic"
	"time"

	// register the tcp:// and unix:// schemes
	_ "github.com/ValentinKolb/svsock/sock/transport/tcp"
	_ "github.com/ValentinKolb/svsock/sock/transport/unix"
)

var Logger = logger.GetLogger("peer")

const (
	// handshakeBufferSize bounds the channel name of a handshake
	handshakeBufferSize = 1024

	// acceptBackoff is the pause after a failed accept
	acceptBackoff = 10 * time.Millisecond
)

// ChannelHandler serves one connection. The connection is closed when the handler returns.
// ctx is cancelled when the hub is closed.
type ChannelHandler func(ctx context.Context, conn *Conn)

// Hub listens for connections and routes each one to the handler of the channel
// named in its handshake
type Hub struct {
	config     common.ServerConfig
	handlers   *xsync.MapOf[string, ChannelHandler]
	conns      *xsync.MapOf[uint64, *Conn]
	nextID     atomic.Uint64
	bufferPool *sync.Pool

	listener  net.Listener
	connector transport.IServerConnector
	endpoint  transport.Endpoint

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.Mutex // orders wg.Add against Close
	closed atomic.Bool
}

// NewHub creates a hub for the endpoint of config. Register handlers before calling Serve.
func NewHub(config common.ServerConfig) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:   config,
		handlers: xsync.NewMapOf[string, ChannelHandler](),
		conns:    xsync.NewMapOf[uint64, *Conn](),
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, handshakeBufferSize)
			},
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handle registers the handler of a channel, replacing any previous one.
//
// The handshake carries no delimiter. When one registered name is a prefix of another
// (a and ab), a client of ab whose first segment holds only "a" is routed to a, and
// the remaining "b" becomes the start of its data stream.
func (h *Hub) Handle(channel string, handler ChannelHandler) {
	h.handlers.Store(channel, handler)
}

// Channels returns the number of registered channels
func (h *Hub) Channels() int {
	return h.handlers.Size()
}

// Connections returns the number of connections currently served
func (h *Hub) Connections() int {
	return h.conns.Size()
}

// Listen binds the listener. Serve calls Listen if it was not called before.
func (h *Hub) Listen() error {
	if h.listener != nil {
		return nil
	}
	listener, connector, err := transport.Listen(h.config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	endpoint, _ := transport.ParseEndpoint(h.config.Endpoint)

	h.listener = listener
	h.connector = connector
	h.endpoint = endpoint
	Logger.Infof("Starting %s peer on %s with %d channel(s)", connector.GetName(), h.Address(), h.Channels())
	return nil
}

// Addr returns the bound listener address
func (h *Hub) Addr() net.Addr {
	if h.listener == nil {
		return nil
	}
	return h.listener.Addr()
}

// Address returns the bound address in scheme://rest form, usable by sock.Open.
// For tcp this contains the actual port when listening on port 0.
func (h *Hub) Address() string {
	if h.listener == nil {
		return h.config.Endpoint
	}
	if h.endpoint.Scheme == transport.SchemeTCP {
		return transport.SchemeTCP + "://" + h.listener.Addr().String()
	}
	return h.endpoint.String()
}

// Serve accepts connections until Close is called
func (h *Hub) Serve() error {
	if err := h.Listen(); err != nil {
		return err
	}

	for {
		conn, err := h.listener.Accept()
		if err != nil {
			if h.closed.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(acceptBackoff)
			continue
		}

		if !h.track() {
			conn.Close()
			return nil
		}

		// Handle the connection in a goroutine
		go h.handleConnection(conn)
	}
}

// Close stops accepting, closes all connections and waits for the handlers to return
func (h *Hub) Close() error {
	h.mu.Lock()
	if !h.closed.CompareAndSwap(false, true) {
		h.mu.Unlock()
		return nil
	}
	h.mu.Unlock()
	h.cancel()

	var err error
	if h.listener != nil {
		err = h.listener.Close()
	}
	h.conns.Range(func(_ uint64, c *Conn) bool {
		c.Close()
		return true
	})
	h.wg.Wait()
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// track registers a connection handler with the wait group. It fails once Close has started.
func (h *Hub) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed.Load() {
		return false
	}
	h.wg.Add(1)
	return true
}

// handleConnection reads the handshake and runs the channel handler
func (h *Hub) handleConnection(conn net.Conn) {
	defer h.wg.Done()

	if err := h.connector.UpgradeConnection(conn, h.config); err != nil {
		Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
	}

	channel, leftover, err := h.handshake(conn)
	if err != nil {
		Logger.Warningf("Rejecting connection from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}
	handler, _ := h.handlers.Load(channel)

	c := newConn(h.nextID.Add(1), channel, conn, leftover)
	h.conns.Store(c.id, c)
	defer func() {
		h.conns.Delete(c.id)
		c.Close()
	}()

	// Close may have ranged over the connections before this one was stored
	if h.closed.Load() {
		return
	}

	common.PeerConnection(channel)
	Logger.Infof("Channel %s connected from %s", channel, conn.RemoteAddr())
	handler(h.ctx, c)
	Logger.Debugf("Channel %s handler returned", channel)
}

// handshake reads the channel name. Bytes received after the name belong to the data
// stream and are returned as leftover. The name is the longest registered channel that
// prefixes the received bytes; reading continues while the bytes are a strict prefix
// of a registered channel.
func (h *Hub) handshake(conn net.Conn) (string, []byte, error) {
	if h.config.TimeoutSecond > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(time.Duration(h.config.TimeoutSecond) * time.Second)); err != nil {
			return "", nil, err
		}
		defer conn.SetReadDeadline(time.Time{})
	}

	buf := h.bufferPool.Get().([]byte)
	defer h.bufferPool.Put(buf)

	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m

		if channel, ok := h.matchChannel(buf[:n]); ok {
			leftover := append([]byte(nil), buf[len(channel):n]...)
			return channel, leftover, nil
		}
		if !h.isChannelPrefix(buf[:n]) {
			return "", nil, fmt.Errorf("unknown channel %q", buf[:n])
		}
		if err != nil {
			return "", nil, fmt.Errorf("handshake read failed after %d bytes: %w", n, err)
		}
	}
	return "", nil, fmt.Errorf("handshake exceeds %d bytes", len(buf))
}

// matchChannel returns the longest registered channel that prefixes data
func (h *Hub) matchChannel(data []byte) (string, bool) {
	best, found := "", false
	h.handlers.Range(func(channel string, _ ChannelHandler) bool {
		if bytes.HasPrefix(data, []byte(channel)) && (!found || len(channel) > len(best)) {
			best, found = channel, true
		}
		return true
	})
	return best, found
}

// isChannelPrefix reports whether data is a strict prefix of a registered channel
func (h *Hub) isChannelPrefix(data []byte) bool {
	result := false
	h.handlers.Range(func(channel string, _ ChannelHandler) bool {
		if len(channel) > len(data) && bytes.HasPrefix([]byte(channel), data) {
			result = true
			return false
		}
		return true
	})
	return result
}
