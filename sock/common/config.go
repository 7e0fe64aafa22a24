package common

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Defaults
// --------------------------------------------------------------------------

const (
	// DefaultBufferSize is the read buffer and line scratch capacity in bytes
	// (1024 bits worth of 32-bit words)
	DefaultBufferSize = 1024 / 32 * 4

	// DefaultRetryDelay is the pause between two connection attempts
	DefaultRetryDelay = 200 * time.Millisecond

	// DefaultNonBlockingWriteTimeout bounds writes on non-blocking handles
	DefaultNonBlockingWriteTimeout = time.Second

	// FrameFormatRaw and FrameFormatLengthPrefixed name the binary wire formats
	FrameFormatRaw            = "raw"
	FrameFormatLengthPrefixed = "length-prefixed"
)

// --------------------------------------------------------------------------
// Wait policy
// --------------------------------------------------------------------------

// WaitMode controls what a stalled receive does
type WaitMode int

const (
	// WaitBlocking blocks in the OS until data arrives
	WaitBlocking WaitMode = iota
	// WaitCooperative waits up to a receive timeout, then calls the yield hook and retries
	WaitCooperative
	// WaitNonBlocking returns immediately when no data is available
	WaitNonBlocking
)

func (m WaitMode) String() string {
	switch m {
	case WaitBlocking:
		return "blocking"
	case WaitCooperative:
		return "cooperative"
	case WaitNonBlocking:
		return "non-blocking"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// WaitPolicy is the effective wait mode of a handle. Timeout is only used by WaitCooperative.
type WaitPolicy struct {
	Mode    WaitMode
	Timeout time.Duration
}

// WaitPolicyFromTimeout maps a timeout in seconds to a wait policy:
// negative selects blocking, zero non-blocking and positive cooperative waiting
func WaitPolicyFromTimeout(timeoutSecond int) WaitPolicy {
	switch {
	case timeoutSecond < 0:
		return WaitPolicy{Mode: WaitBlocking}
	case timeoutSecond == 0:
		return WaitPolicy{Mode: WaitNonBlocking}
	default:
		return WaitPolicy{Mode: WaitCooperative, Timeout: time.Duration(timeoutSecond) * time.Second}
	}
}

func (p WaitPolicy) String() string {
	if p.Mode == WaitCooperative {
		return fmt.Sprintf("%s(%s)", p.Mode, p.Timeout)
	}
	return p.Mode.String()
}

// --------------------------------------------------------------------------
// Socket options (shared by client and server)
// --------------------------------------------------------------------------

// SocketConf holds OS socket buffer sizes in bytes, 0 keeps the OS default
type SocketConf struct {
	WriteBufferSize int
	ReadBufferSize  int
}

// TCPConf holds TCP specific options. Zero values keep the OS defaults.
type TCPConf struct {
	TCPNoDelay      bool
	TCPKeepAliveSec int
	// TCPLingerSec sets SO_LINGER when positive
	TCPLingerSec int
}

type TransportConf struct {
	SocketConf
	TCPConf
}

// --------------------------------------------------------------------------
// Client configuration struct
// --------------------------------------------------------------------------

// ClientConfig configures the opening side of a connection
type ClientConfig struct {
	// TimeoutSecond selects the wait mode (<0 blocking, 0 non-blocking, >0 cooperative)
	TimeoutSecond int
	// ChannelTimeouts overrides TimeoutSecond for single channels
	ChannelTimeouts map[string]int
	// RetryDelay is the backoff between connection attempts
	RetryDelay time.Duration
	// BufferSize is the capacity of the read buffer and the line scratch buffer
	BufferSize int
	// FrameFormat is the binary wire format (raw, length-prefixed)
	FrameFormat string
	// WriteTimeout bounds a single write, 0 means no deadline
	WriteTimeout time.Duration

	Transport TransportConf

	LogLevel string
}

// DefaultClientConfig returns a blocking, raw-framed client configuration
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		TimeoutSecond: -1,
		RetryDelay:    DefaultRetryDelay,
		BufferSize:    DefaultBufferSize,
		FrameFormat:   FrameFormatRaw,
		LogLevel:      "info",
	}
}

// WaitPolicyFor returns the wait policy of the given channel
func (c *ClientConfig) WaitPolicyFor(channel string) WaitPolicy {
	if t, ok := c.ChannelTimeouts[channel]; ok {
		return WaitPolicyFromTimeout(t)
	}
	return WaitPolicyFromTimeout(c.TimeoutSecond)
}

// EffectiveRetryDelay returns the configured retry delay or the default
func (c *ClientConfig) EffectiveRetryDelay() time.Duration {
	if c.RetryDelay > 0 {
		return c.RetryDelay
	}
	return DefaultRetryDelay
}

// EffectiveBufferSize returns the configured buffer size or the default
func (c *ClientConfig) EffectiveBufferSize() int {
	if c.BufferSize > 0 {
		return c.BufferSize
	}
	return DefaultBufferSize
}

// EffectiveWriteTimeout returns the write deadline for the given wait policy
func (c *ClientConfig) EffectiveWriteTimeout(policy WaitPolicy) time.Duration {
	if c.WriteTimeout > 0 {
		return c.WriteTimeout
	}
	if policy.Mode == WaitNonBlocking {
		return DefaultNonBlockingWriteTimeout
	}
	return 0
}

// ParseChannelTimeouts parses a comma separated list of channel=seconds pairs
func ParseChannelTimeouts(s string) (map[string]int, error) {
	result := make(map[string]int)
	if strings.TrimSpace(s) == "" {
		return result, nil
	}
	for _, entry := range strings.Split(s, ",") {
		parts := strings.Split(entry, "=")
		if len(parts) != 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("invalid channel timeout format: %s (expected CHANNEL=SECONDS)", entry)
		}
		t, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("invalid timeout for channel %s: %v", parts[0], err)
		}
		result[strings.TrimSpace(parts[0])] = t
	}
	return result, nil
}

// String returns a formatted string representation of the client configuration
func (c *ClientConfig) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Client Configuration")
	addField("Wait Mode", WaitPolicyFromTimeout(c.TimeoutSecond).String())
	addField("Retry Delay", c.EffectiveRetryDelay().String())
	addField("Buffer Size", fmt.Sprintf("%d bytes", c.EffectiveBufferSize()))
	addField("Frame Format", c.FrameFormat)
	if c.WriteTimeout > 0 {
		addField("Write Timeout", c.WriteTimeout.String())
	}

	if len(c.ChannelTimeouts) > 0 {
		addSection("Channel Timeouts")

		// Sort keys for consistent output
		var keys []string
		for k := range c.ChannelTimeouts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			addField(k, WaitPolicyFromTimeout(c.ChannelTimeouts[k]).String())
		}
	}

	addSection("Socket")
	addField("TCP No Delay", fmt.Sprintf("%t", c.Transport.TCPNoDelay))
	addField("TCP Keep Alive", fmt.Sprintf("%d sec", c.Transport.TCPKeepAliveSec))
	addField("Write Buffer", fmt.Sprintf("%d bytes", c.Transport.WriteBufferSize))
	addField("Read Buffer", fmt.Sprintf("%d bytes", c.Transport.ReadBufferSize))

	return sb.String()
}

// --------------------------------------------------------------------------
// Server (peer) configuration struct
// --------------------------------------------------------------------------

// ServerConfig configures the listening peer
type ServerConfig struct {
	// Endpoint is the listen address (tcp://host:port or unix://path)
	Endpoint string
	// TimeoutSecond bounds the handshake read, 0 disables the deadline
	TimeoutSecond int64

	Transport TransportConf

	LogLevel string
}

// String returns a formatted string representation of the configuration
func (c *ServerConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Peer Server")
	addField("Endpoint", c.Endpoint)
	addField("Handshake Timeout", fmt.Sprintf("%d sec", c.TimeoutSecond))

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
