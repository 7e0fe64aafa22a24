package peer

import (
	"context"
	"errors"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/frame"
	"net"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// startHub starts a hub with the given handlers on a loopback endpoint
func startHub(t *testing.T, endpoint string, handlers map[string]ChannelHandler) *Hub {
	t.Helper()
	hub := NewHub(common.ServerConfig{Endpoint: endpoint, TimeoutSecond: 5})
	for channel, handler := range handlers {
		hub.Handle(channel, handler)
	}
	if err := hub.Listen(); err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	go hub.Serve()
	t.Cleanup(func() { hub.Close() })
	return hub
}

// dial connects to the hub and sends raw bytes
func dial(t *testing.T, hub *Hub, data []byte) net.Conn {
	t.Helper()
	addr := hub.Addr()
	conn, err := net.Dial(addr.Network(), addr.String())
	if err != nil {
		t.Fatalf("Failed to dial hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if _, err := conn.Write(data); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}
	conn.SetDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestRouteByChannel(t *testing.T) {
	got := make(chan string, 2)
	handler := func(ctx context.Context, c *Conn) {
		line, err := c.ReadLine()
		if err != nil {
			got <- "error: " + err.Error()
			return
		}
		got <- c.Channel() + ":" + line
	}

	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"din":  handler,
		"dout": handler,
	})

	for _, channel := range []string{"din", "dout"} {
		conn := dial(t, hub, []byte(channel))
		time.Sleep(20 * time.Millisecond)
		conn.Write([]byte("hello\n"))

		select {
		case msg := <-got:
			if msg != channel+":hello" {
				t.Errorf("Expected %s:hello, got %s", channel, msg)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("Handler for %s was not called", channel)
		}
	}
}

func TestHandshakeCoalescedWithData(t *testing.T) {
	got := make(chan []uint32, 1)
	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"sig": func(ctx context.Context, c *Conn) {
			words := make([]uint32, 2)
			if err := c.RecvWords(33, words); err != nil {
				t.Errorf("RecvWords failed: %v", err)
			}
			got <- words
		},
		"signal": func(ctx context.Context, c *Conn) {
			t.Errorf("Expected routing to sig, got signal")
		},
	})

	// handshake and one raw 33 bit frame in a single write
	data := append([]byte("sig"), frame.PutWords(nil, []uint32{0xdeadbeef, 1})...)
	dial(t, hub, data)

	select {
	case words := <-got:
		if !reflect.DeepEqual(words, []uint32{0xdeadbeef, 1}) {
			t.Errorf("Expected [0xdeadbeef 1], got %x", words)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Handler was not called")
	}
}

func TestHandshakeLongestMatch(t *testing.T) {
	got := make(chan string, 1)
	handler := func(ctx context.Context, c *Conn) {
		got <- c.Channel()
	}
	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"sig":    handler,
		"signal": handler,
	})

	dial(t, hub, []byte("signal"))

	select {
	case channel := <-got:
		if channel != "signal" {
			t.Errorf("Expected signal, got %s", channel)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Handler was not called")
	}
}

func TestHandshakeSplitAfterShorterName(t *testing.T) {
	got := make(chan string, 1)
	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"a": func(ctx context.Context, c *Conn) {
			line, _ := c.ReadLine()
			got <- "a:" + line
		},
		"ab": func(ctx context.Context, c *Conn) {
			line, _ := c.ReadLine()
			got <- "ab:" + line
		},
	})

	conn := dial(t, hub, []byte("a"))
	time.Sleep(200 * time.Millisecond)
	if _, err := conn.Write([]byte("bx\n")); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	select {
	case result := <-got:
		if result != "a:bx" {
			t.Errorf("Expected a:bx, got %s", result)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Handler was not called")
	}
}

func TestUnknownChannelClosed(t *testing.T) {
	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"known": func(ctx context.Context, c *Conn) {
			t.Errorf("Handler must not be called")
		},
	})

	conn := dial(t, hub, []byte("unknown"))
	buf := make([]byte, 1)
	if _, err := conn.Read(buf); err == nil {
		t.Error("Expected connection to be closed by the hub")
	}
}

func TestConnWordsAndCommands(t *testing.T) {
	done := make(chan error, 1)
	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"_synchro": func(ctx context.Context, c *Conn) {
			if err := c.SendCommand(CmdForward, 3); err != nil {
				done <- err
				return
			}
			if err := c.SendWords(frame.LengthPrefixed, 8, []uint32{0xab}); err != nil {
				done <- err
				return
			}
			if err := c.SendEndOfStream(); err != nil {
				done <- err
				return
			}
			done <- c.RecvDone()
		},
	})

	conn := dial(t, hub, []byte("_synchro"))

	buf := make([]byte, 16)
	if _, err := readFull(conn, buf); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	words := make([]uint32, 4)
	frame.ReadWords(buf, words)

	cmd, arg, err := ParseCommand(words[0])
	if err != nil || cmd != CmdForward || arg != 3 {
		t.Errorf("Expected FORWARD 3, got %s %d (%v)", cmd, arg, err)
	}
	if words[1] != 8 || words[2] != 0xab {
		t.Errorf("Expected marker 8 and payload 0xab, got %d 0x%x", words[1], words[2])
	}
	if words[3] != 0 {
		t.Errorf("Expected end of stream marker, got %d", words[3])
	}

	conn.Write(frame.Done[:])
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Expected done sentinel, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Handler did not finish")
	}
}

func TestRecvDoneRejectsData(t *testing.T) {
	done := make(chan error, 1)
	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"ack": func(ctx context.Context, c *Conn) {
			done <- c.RecvDone()
		},
	})

	conn := dial(t, hub, []byte("ack"))
	time.Sleep(20 * time.Millisecond)
	conn.Write([]byte{1, 0, 0, 0})

	select {
	case err := <-done:
		if !errors.Is(err, ErrUnexpectedFrame) {
			t.Errorf("Expected ErrUnexpectedFrame, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Handler did not finish")
	}
}

func TestUnixHub(t *testing.T) {
	dir, err := os.MkdirTemp("", "svsock")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	got := make(chan string, 1)
	hub := startHub(t, "unix://"+filepath.Join(dir, "peer.sock"), map[string]ChannelHandler{
		"log": func(ctx context.Context, c *Conn) {
			line, _ := c.ReadLine()
			got <- line
		},
	})

	if hub.Address() != "unix://"+filepath.Join(dir, "peer.sock") {
		t.Errorf("Expected unix address, got %s", hub.Address())
	}

	dial(t, hub, []byte("log"+"first line\n"))

	select {
	case line := <-got:
		if line != "first line" {
			t.Errorf("Expected first line, got %q", line)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Handler was not called")
	}
}

func TestCloseStopsHandlers(t *testing.T) {
	started := make(chan struct{})
	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"wait": func(ctx context.Context, c *Conn) {
			close(started)
			c.ReadLine() // unblocked by Close
		},
	})

	dial(t, hub, []byte("wait"))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("Handler was not called")
	}

	closed := make(chan error, 1)
	go func() { closed <- hub.Close() }()
	select {
	case err := <-closed:
		if err != nil {
			t.Errorf("Expected clean close, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not return")
	}
	if hub.Connections() != 0 {
		t.Errorf("Expected no connections after close, got %d", hub.Connections())
	}

	// second close is a no-op
	if err := hub.Close(); err != nil {
		t.Errorf("Expected nil on second close, got %v", err)
	}
}

func TestCloseWhileAccepting(t *testing.T) {
	var closeReturned, lateHandler atomic.Bool
	hub := startHub(t, "tcp://127.0.0.1:0", map[string]ChannelHandler{
		"busy": func(ctx context.Context, c *Conn) {
			if closeReturned.Load() {
				lateHandler.Store(true)
			}
		},
	})
	addr := hub.Addr()

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				conn, err := net.DialTimeout(addr.Network(), addr.String(), time.Second)
				if err != nil {
					continue
				}
				conn.Write([]byte("busy"))
				conn.Close()
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	if err := hub.Close(); err != nil {
		t.Errorf("Expected clean close, got %v", err)
	}
	closeReturned.Store(true)
	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()

	if lateHandler.Load() {
		t.Error("Expected no handler to run after Close returned")
	}
	if hub.track() {
		t.Error("Expected closed hub to reject new connections")
	}
}

func TestCommands(t *testing.T) {
	tests := []struct {
		cmd  Command
		arg  uint32
		word uint32
	}{
		{CmdSysReset, 0, 0x80000000},
		{CmdSetData, 2, 0x40000002},
		{CmdCycle, 100, 0x08000064},
		{CmdFinish, 0, 0x01000000},
		{CmdRead, ArgMask, 0x04ffffff},
	}

	for _, tt := range tests {
		t.Run(tt.cmd.String(), func(t *testing.T) {
			word, err := tt.cmd.Encode(tt.arg)
			if err != nil || word != tt.word {
				t.Errorf("Expected 0x%08x, got 0x%08x (%v)", tt.word, word, err)
			}
			cmd, arg, err := ParseCommand(word)
			if err != nil || cmd != tt.cmd || arg != tt.arg {
				t.Errorf("Expected %s %d, got %s %d (%v)", tt.cmd, tt.arg, cmd, arg, err)
			}
			b, _ := tt.cmd.Bytes(tt.arg)
			if b[3] != byte(tt.word>>24) || b[0] != byte(tt.word) {
				t.Errorf("Expected little-endian bytes, got % x", b)
			}
		})
	}

	if _, err := CmdAck.Encode(1 << 24); err == nil {
		t.Error("Expected error for argument wider than 24 bits")
	}
	if _, _, err := ParseCommand(0x00000001); err == nil {
		t.Error("Expected error for word without command bits")
	}
	if cmd, err := ParseCommandName("cycle"); err != nil || cmd != CmdCycle {
		t.Errorf("Expected CYCLE, got %s (%v)", cmd, err)
	}
}

// readFull reads exactly len(buf) bytes
func readFull(conn net.Conn, buf []byte) (int, error) {
	n := 0
	for n < len(buf) {
		m, err := conn.Read(buf[n:])
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
