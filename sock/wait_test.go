package sock

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/frame"
	"github.com/ValentinKolb/svsock/sock/peer"
	"golang.org/x/sys/unix"
	"io"
	"net"
	"os"
	"testing"
	"time"
)

func cooperative(timeout time.Duration) Option {
	return WithWaitPolicy(common.WaitPolicy{Mode: common.WaitCooperative, Timeout: timeout})
}

func TestCooperativeGetYields(t *testing.T) {
	release := make(chan struct{})
	hub := startPeer(t, "coop", func(ctx context.Context, c *peer.Conn) {
		select {
		case <-release:
		case <-ctx.Done():
			return
		}
		c.SendWords(frame.Raw, 32, []uint32{42})
		waitClosed(c)
	})

	// the yield hook stands in for the simulator: data only arrives after it ran
	yields := 0
	h := openHandle(t, hub, "coop", testConfig(), cooperative(10*time.Millisecond), WithYield(func() {
		yields++
		if yields == 3 {
			close(release)
		}
	}))

	dst := make([]uint32, 1)
	if err := h.Get(32, dst); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if yields < 3 {
		t.Errorf("Expected at least 3 yields, got %d", yields)
	}
	if dst[0] != 42 {
		t.Errorf("Expected 42, got %d", dst[0])
	}
}

func TestCooperativeReadLineYields(t *testing.T) {
	release := make(chan struct{})
	hub := startPeer(t, "coop", func(ctx context.Context, c *peer.Conn) {
		select {
		case <-release:
		case <-ctx.Done():
			return
		}
		c.WriteLine("tick")
		waitClosed(c)
	})

	yields := 0
	h := openHandle(t, hub, "coop", testConfig(), cooperative(10*time.Millisecond), WithYield(func() {
		yields++
		if yields == 1 {
			close(release)
		}
	}))

	line, err := h.ReadLine()
	if err != nil || line != "tick" {
		t.Fatalf("Expected tick, got %q (%v)", line, err)
	}
	if yields == 0 {
		t.Error("Expected the yield hook to run")
	}
}

func TestCloseFromYieldHook(t *testing.T) {
	hub := startPeer(t, "idle", func(ctx context.Context, c *peer.Conn) { waitClosed(c) })

	var h *Handle
	h = openHandle(t, hub, "idle", testConfig(), cooperative(5*time.Millisecond), WithYield(func() {
		h.Close()
	}))

	if err := h.Get(32, make([]uint32, 1)); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestNonBlockingNoData(t *testing.T) {
	send := make(chan []byte)
	hub := startPeer(t, "poll", func(ctx context.Context, c *peer.Conn) {
		for {
			select {
			case p := <-send:
				c.Write(p)
			case <-ctx.Done():
				return
			}
		}
	})

	h := openHandle(t, hub, "poll", testConfig(),
		WithWaitPolicy(common.WaitPolicy{Mode: common.WaitNonBlocking}),
		WithYield(func() { t.Error("Yield hook must not run in non-blocking mode") }))

	dst := make([]uint32, 1)
	start := time.Now()
	if err := h.Get(32, dst); !errors.Is(err, ErrNoData) {
		t.Fatalf("Expected ErrNoData, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Errorf("Expected immediate return, took %s", elapsed)
	}
	if _, err := h.ReadLine(); !errors.Is(err, ErrNoData) {
		t.Errorf("Expected ErrNoData from ReadLine, got %v", err)
	}
	if IsFatal(ErrNoData) {
		t.Error("Expected ErrNoData not to be fatal")
	}

	// half a frame stays buffered
	send <- []byte{0x01, 0x02}
	poll(t, func() bool {
		err := h.Get(32, dst)
		if err != nil && !errors.Is(err, ErrNoData) {
			t.Fatalf("Unexpected error: %v", err)
		}
		return h.Buffered() == 2
	})

	send <- []byte{0x03, 0x04}
	poll(t, func() bool {
		err := h.Get(32, dst)
		if err != nil && !errors.Is(err, ErrNoData) {
			t.Fatalf("Unexpected error: %v", err)
		}
		return err == nil
	})
	if dst[0] != 0x04030201 {
		t.Errorf("Expected 0x04030201, got 0x%08x", dst[0])
	}
}

// poll calls cond until it returns true or two seconds passed
func poll(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("Condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestCloseIdempotent(t *testing.T) {
	hub := startPeer(t, "close", func(ctx context.Context, c *peer.Conn) { waitClosed(c) })
	h := openHandle(t, hub, "close", testConfig())

	if err := h.Close(); err != nil {
		t.Errorf("Expected first close to succeed, got %v", err)
	}
	if err := h.Close(); err != nil {
		t.Errorf("Expected second close to be a no-op, got %v", err)
	}
	if !h.Closed() {
		t.Error("Expected handle to report closed")
	}

	calls := map[string]error{
		"Get":        h.Get(32, make([]uint32, 1)),
		"Put":        h.Put(32, []uint32{1}),
		"SignalDone": h.SignalDone(),
		"WriteLine":  h.WriteLine("x"),
	}
	_, err := h.ReadLine()
	calls["ReadLine"] = err

	for name, err := range calls {
		if !errors.Is(err, ErrClosed) {
			t.Errorf("Expected ErrClosed from %s, got %v", name, err)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		expected recvClass
	}{
		{nil, recvOK},
		{&net.OpError{Op: "read", Net: "tcp", Err: os.ErrDeadlineExceeded}, recvWouldBlock},
		{unix.EAGAIN, recvWouldBlock},
		{fmt.Errorf("wrapped: %w", unix.EWOULDBLOCK), recvWouldBlock},
		{unix.EINTR, recvInterrupted},
		{io.EOF, recvFatal},
		{unix.ECONNRESET, recvFatal},
		{net.ErrClosed, recvFatal},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.err), func(t *testing.T) {
			if got := classify(tt.err); got != tt.expected {
				t.Errorf("Expected class %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{nil, false},
		{ErrNoData, false},
		{ErrEndOfStream, false},
		{ErrLineTooLong, false},
		{ErrFrameTooLarge, false},
		{ErrClosed, true},
		{fmt.Errorf("%w: marker 8, width 16", ErrFrameMismatch), true},
		{&RecvError{Channel: "a", Err: io.EOF}, true},
		{&SendError{Channel: "a", Written: 1, Expected: 4, Err: io.ErrShortWrite}, true},
	}

	for _, tt := range tests {
		if got := IsFatal(tt.err); got != tt.expected {
			t.Errorf("IsFatal(%v): expected %t, got %t", tt.err, tt.expected, got)
		}
	}
}
