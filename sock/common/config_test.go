package common

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestWaitPolicyFromTimeout(t *testing.T) {
	tests := []struct {
		timeout  int
		expected WaitPolicy
	}{
		{-1, WaitPolicy{Mode: WaitBlocking}},
		{-100, WaitPolicy{Mode: WaitBlocking}},
		{0, WaitPolicy{Mode: WaitNonBlocking}},
		{2, WaitPolicy{Mode: WaitCooperative, Timeout: 2 * time.Second}},
	}

	for _, tt := range tests {
		if got := WaitPolicyFromTimeout(tt.timeout); got != tt.expected {
			t.Errorf("Timeout %d: expected %s, got %s", tt.timeout, tt.expected, got)
		}
	}
}

func TestWaitPolicyFor(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.ChannelTimeouts = map[string]int{"_synchro": 2, "poll": 0}

	if got := cfg.WaitPolicyFor("din"); got.Mode != WaitBlocking {
		t.Errorf("Expected blocking default, got %s", got)
	}
	if got := cfg.WaitPolicyFor("_synchro"); got.Mode != WaitCooperative || got.Timeout != 2*time.Second {
		t.Errorf("Expected cooperative(2s), got %s", got)
	}
	if got := cfg.WaitPolicyFor("poll"); got.Mode != WaitNonBlocking {
		t.Errorf("Expected non-blocking, got %s", got)
	}
}

func TestParseChannelTimeouts(t *testing.T) {
	got, err := ParseChannelTimeouts(" _synchro=2, din = -1 ,poll=0")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	expected := map[string]int{"_synchro": 2, "din": -1, "poll": 0}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("Expected %v, got %v", expected, got)
	}

	if got, err := ParseChannelTimeouts(""); err != nil || len(got) != 0 {
		t.Errorf("Expected empty map, got %v (%v)", got, err)
	}

	for _, invalid := range []string{"a", "a=b", "=1", "a=1=2"} {
		if _, err := ParseChannelTimeouts(invalid); err == nil {
			t.Errorf("Expected error for %q", invalid)
		}
	}
}

func TestEffectiveValues(t *testing.T) {
	var cfg ClientConfig
	if cfg.EffectiveRetryDelay() != DefaultRetryDelay {
		t.Errorf("Expected default retry delay, got %s", cfg.EffectiveRetryDelay())
	}
	if cfg.EffectiveBufferSize() != 128 {
		t.Errorf("Expected default buffer size 128, got %d", cfg.EffectiveBufferSize())
	}
	if got := cfg.EffectiveWriteTimeout(WaitPolicy{Mode: WaitNonBlocking}); got != DefaultNonBlockingWriteTimeout {
		t.Errorf("Expected non-blocking write timeout, got %s", got)
	}
	if got := cfg.EffectiveWriteTimeout(WaitPolicy{Mode: WaitBlocking}); got != 0 {
		t.Errorf("Expected no write timeout for blocking handles, got %s", got)
	}

	cfg.WriteTimeout = 5 * time.Second
	if got := cfg.EffectiveWriteTimeout(WaitPolicy{Mode: WaitBlocking}); got != 5*time.Second {
		t.Errorf("Expected configured write timeout, got %s", got)
	}
}

func TestConfigString(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.ChannelTimeouts = map[string]int{"_synchro": 2}
	s := cfg.String()
	for _, expected := range []string{"CLIENT CONFIGURATION", "blocking", "_synchro", "cooperative(2s)", "128 bytes"} {
		if !strings.Contains(s, expected) {
			t.Errorf("Expected config string to contain %q:\n%s", expected, s)
		}
	}

	server := ServerConfig{Endpoint: "tcp://:4567", LogLevel: "info"}
	if !strings.Contains(server.String(), "tcp://:4567") {
		t.Errorf("Expected endpoint in server config string:\n%s", server.String())
	}
}

func TestParseLogLevel(t *testing.T) {
	for _, level := range []string{"debug", "INFO", "warn", "warning", "error", ""} {
		if _, err := ParseLogLevel(level); err != nil {
			t.Errorf("Expected %q to parse, got %v", level, err)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Error("Expected error for unknown level")
	}
	if err := InitLoggers("debug"); err != nil {
		t.Errorf("Expected InitLoggers to succeed, got %v", err)
	}
	if err := InitLoggers("info"); err != nil {
		t.Errorf("Expected repeated InitLoggers to succeed, got %v", err)
	}
}
