package util

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"strings"
	"testing"
	"time"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Expected lines of at most %d characters, got %d: %q", Wrap, len(line), line)
		}
	}
	if WrapString("short text") != "short text" {
		t.Errorf("Expected short text to stay on one line")
	}
}

func TestGetClientConfig(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	SetupClientFlags(cmd)
	if err := cmd.ParseFlags([]string{"--timeout=2", "--channel-timeouts=_synchro=0", "--retry-delay-ms=50", "--transport-read-buffer=4"}); err != nil {
		t.Fatalf("Failed to parse flags: %v", err)
	}
	if err := viper.BindPFlags(cmd.PersistentFlags()); err != nil {
		t.Fatalf("Failed to bind flags: %v", err)
	}

	config, err := GetClientConfig()
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if config.TimeoutSecond != 2 {
		t.Errorf("Expected timeout 2, got %d", config.TimeoutSecond)
	}
	if config.ChannelTimeouts["_synchro"] != 0 || len(config.ChannelTimeouts) != 1 {
		t.Errorf("Expected _synchro override, got %v", config.ChannelTimeouts)
	}
	if config.RetryDelay != 50*time.Millisecond {
		t.Errorf("Expected 50ms retry delay, got %s", config.RetryDelay)
	}
	if config.BufferSize != 128 || config.FrameFormat != "raw" {
		t.Errorf("Expected defaults for buffer size and frame format, got %d %s", config.BufferSize, config.FrameFormat)
	}
	if config.Transport.ReadBufferSize != 4*1024 || config.Transport.TCPLingerSec != 0 {
		t.Errorf("Expected socket options from flags, got %+v", config.Transport)
	}
}
