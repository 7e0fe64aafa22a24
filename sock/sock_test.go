package sock

import (
	"context"
	"github.com/ValentinKolb/svsock/lib/bitvec"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/peer"
	"os"
	"testing"
	"time"
)

// testWidths are the signal widths every word codec test covers
var testWidths = []int{1, 31, 32, 33, 64, 127}

func testConfig() common.ClientConfig {
	cfg := common.DefaultClientConfig()
	cfg.RetryDelay = 10 * time.Millisecond
	return cfg
}

// startPeer starts a loopback hub serving one channel
func startPeer(t *testing.T, channel string, handler peer.ChannelHandler) *peer.Hub {
	t.Helper()
	return startPeerAt(t, "tcp://127.0.0.1:0", channel, handler)
}

func startPeerAt(t *testing.T, endpoint, channel string, handler peer.ChannelHandler) *peer.Hub {
	t.Helper()
	hub := peer.NewHub(common.ServerConfig{Endpoint: endpoint, TimeoutSecond: 5})
	hub.Handle(channel, handler)
	if err := hub.Listen(); err != nil {
		t.Fatalf("Failed to start peer: %v", err)
	}
	go hub.Serve()
	t.Cleanup(func() { hub.Close() })
	return hub
}

// openHandle opens a handle to the hub and closes it when the test ends
func openHandle(t *testing.T, hub *peer.Hub, channel string, cfg common.ClientConfig, opts ...Option) *Handle {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h, err := Open(ctx, hub.Address(), channel, cfg, opts...)
	if err != nil {
		t.Fatalf("Failed to open handle: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// waitClosed blocks the handler until the opening side closes the connection
func waitClosed(c *peer.Conn) {
	buf := make([]byte, 64)
	for {
		if _, err := c.Read(buf); err != nil {
			return
		}
	}
}

// testWords returns a masked word pattern for width bits
func testWords(width int) []uint32 {
	words := make([]uint32, bitvec.WordCount(width))
	for i := range words {
		words[i] = 0xa5c3e1f0 ^ uint32(i*0x01010101) ^ uint32(width)
	}
	bitvec.Mask(words, width)
	return words
}

// socketDir returns a short temporary directory for unix sockets
func socketDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "svsock")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}
