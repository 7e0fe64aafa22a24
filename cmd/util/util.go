package util

import (
	"context"
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/sock"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
)

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50

	// EnvPrefix is the prefix of all environment variables (e.g. SVSOCK_ENDPOINT)
	EnvPrefix = "svsock"
)

// Logger is the logger of the command line interface
var Logger = logger.GetLogger("cli")

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		// Add space before word (if not first word on line)
		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// SetupClientFlags adds the connection flags of the opening side to a command
func SetupClientFlags(cmd *cobra.Command) {
	key := "endpoint"
	cmd.PersistentFlags().String(key, "tcp://localhost:4567", WrapString("The address of the peer (tcp://host:port, unix:///path/to/socket or unix://@abstract-name)"))

	key = "channel"
	cmd.PersistentFlags().String(key, "", WrapString("The channel name sent as handshake after connecting"))

	key = "timeout"
	cmd.PersistentFlags().Int(key, -1, WrapString("Receive timeout in seconds. Negative values block, 0 selects non-blocking receives, positive values wait cooperatively and enable TCP_NODELAY"))

	key = "channel-timeouts"
	cmd.PersistentFlags().String(key, "", WrapString("Per channel timeout overrides as comma separated list of CHANNEL=SECONDS (e.g. _synchro=2)"))

	key = "retry-delay-ms"
	cmd.PersistentFlags().Int(key, int(common.DefaultRetryDelay/time.Millisecond), WrapString("Pause between connection attempts in milliseconds"))

	key = "buffer-size"
	cmd.PersistentFlags().Int(key, common.DefaultBufferSize, WrapString("Capacity of the read buffer in bytes. Lines and frames must fit into it"))

	key = "frame-format"
	cmd.PersistentFlags().String(key, common.FrameFormatRaw, WrapString("Wire format of received word frames (raw, length-prefixed)"))

	key = "write-timeout-ms"
	cmd.PersistentFlags().Int(key, 0, WrapString("Write deadline in milliseconds (0 = none, non-blocking handles default to 1000)"))

	key = "transport-write-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	cmd.PersistentFlags().Int(key, 0, WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	cmd.PersistentFlags().Bool(key, false, WrapString("Whether to enable TCP_NODELAY (always enabled for cooperative timeouts)"))

	key = "transport-tcp-keepalive"
	cmd.PersistentFlags().Int(key, 0, WrapString("The keepalive interval (in seconds, 0 disables keepalive)"))

	key = "transport-tcp-linger"
	cmd.PersistentFlags().Int(key, 0, WrapString("The linger time (in seconds, 0 keeps the OS default)"))

	key = "log-level"
	cmd.PersistentFlags().String(key, "warn", WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// InitClientConfig initializes configuration from environment variables
func InitClientConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// GetClientConfig reads the client configuration from viper
func GetClientConfig() (common.ClientConfig, error) {
	channelTimeouts, err := common.ParseChannelTimeouts(viper.GetString("channel-timeouts"))
	if err != nil {
		return common.ClientConfig{}, err
	}

	conf := common.ClientConfig{
		TimeoutSecond:   viper.GetInt("timeout"),
		ChannelTimeouts: channelTimeouts,
		RetryDelay:      time.Duration(viper.GetInt("retry-delay-ms")) * time.Millisecond,
		BufferSize:      viper.GetInt("buffer-size"),
		FrameFormat:     viper.GetString("frame-format"),
		WriteTimeout:    time.Duration(viper.GetInt("write-timeout-ms")) * time.Millisecond,
		LogLevel:        viper.GetString("log-level"),
		Transport: common.TransportConf{
			SocketConf: common.SocketConf{
				WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
				ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
			},
			TCPConf: common.TCPConf{
				TCPKeepAliveSec: viper.GetInt("transport-tcp-keepalive"),
				TCPLingerSec:    viper.GetInt("transport-tcp-linger"),
				TCPNoDelay:      viper.GetBool("transport-tcp-nodelay"),
			},
		},
	}

	if conf.BufferSize < 8 {
		return conf, fmt.Errorf("buffer size must be at least 8 bytes, got %d", conf.BufferSize)
	}

	return conf, nil
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// SignalContext returns a context that is cancelled on SIGINT or SIGTERM
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// OpenHandle reads the client configuration, initializes the loggers and opens a
// handle for the configured endpoint and channel. It waits until the peer accepts.
func OpenHandle(ctx context.Context) (*sock.Handle, error) {
	config, err := GetClientConfig()
	if err != nil {
		return nil, err
	}
	if err := common.InitLoggers(config.LogLevel); err != nil {
		return nil, err
	}

	endpoint := viper.GetString("endpoint")
	channel := viper.GetString("channel")
	Logger.Debugf("Opening channel %s on %s with configuration:%s", channel, endpoint, config.String())

	return sock.Open(ctx, endpoint, channel, config)
}

// PollNoData repeats op while it returns sock.ErrNoData, sleeping interval between
// attempts. Non-blocking handles need this in an interactive command.
func PollNoData(ctx context.Context, interval time.Duration, op func() error) error {
	for {
		err := op()
		if !errors.Is(err, sock.ErrNoData) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
