package serve

import (
	"context"
	"errors"
	"fmt"
	cmdUtil "github.com/ValentinKolb/svsock/cmd/util"
	"github.com/ValentinKolb/svsock/sock/common"
	"github.com/ValentinKolb/svsock/sock/peer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"net/http"
	"strings"
	"time"
)

var (
	serveCmdConfig   = &common.ServerConfig{}
	serveCmdChannels = map[string]channelEntry{}
	metricsEndpoint  = ""
	ServeCmd         = &cobra.Command{
		Use:     "serve",
		Short:   "Start a peer hub",
		Long:    `Start a peer hub that accepts connections and routes them by their handshake to the configured channel handlers. The configuration can be set via command line flags or environment variables. The format of the environment variables is SVSOCK_<flag> (e.g. SVSOCK_ENDPOINT=unix:///tmp/sim.sock)`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(initConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "tcp://0.0.0.0:4567", cmdUtil.WrapString("The address on which the hub will listen (e.g. tcp://localhost:4567, unix:///tmp/sim.sock, unix://@sim)"))

	key = "channels"
	ServeCmd.PersistentFlags().String(key, "echo=echo,log=log", cmdUtil.WrapString("Comma-separated list of channels to serve. Format: NAME=KIND where KIND is one of: echo (echo lines), log (log lines), loop:WIDTH (echo raw frames of WIDTH bits), sink (discard everything)"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds for reading the handshake (0 = no timeout)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Address for an HTTP server exposing Prometheus metrics on /metrics (e.g. localhost:9100, empty = disabled)"))

	key = "transport-write-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket write buffer (in KB, 0 keeps the OS default)"))

	key = "transport-read-buffer"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("The size of the socket read buffer (in KB, 0 keeps the OS default)"))

	key = "transport-tcp-nodelay"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Whether to enable TCP_NODELAY on accepted connections"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// processConfig reads the configuration from the command line flags and environment variables and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	channels, err := parseChannels(viper.GetString("channels"))
	if err != nil {
		return err
	}
	serveCmdChannels = channels

	// read the configuration from the command line flags and environment variables
	serveCmdConfig.Endpoint = viper.GetString("endpoint")
	serveCmdConfig.TimeoutSecond = viper.GetInt64("timeout")
	serveCmdConfig.LogLevel = viper.GetString("log-level")
	serveCmdConfig.Transport = common.TransportConf{
		SocketConf: common.SocketConf{
			WriteBufferSize: viper.GetInt("transport-write-buffer") * 1024,
			ReadBufferSize:  viper.GetInt("transport-read-buffer") * 1024,
		},
		TCPConf: common.TCPConf{
			TCPNoDelay: viper.GetBool("transport-tcp-nodelay"),
		},
	}
	metricsEndpoint = viper.GetString("metrics-endpoint")

	return common.InitLoggers(serveCmdConfig.LogLevel)
}

// run starts the hub and blocks until SIGINT or SIGTERM
func run(_ *cobra.Command, _ []string) error {
	hub := peer.NewHub(*serveCmdConfig)
	for name, entry := range serveCmdChannels {
		hub.Handle(name, entry.handler())
	}

	if err := hub.Listen(); err != nil {
		return err
	}

	ctx, cancel := cmdUtil.SignalContext()
	defer cancel()

	if metricsEndpoint != "" {
		srv := startMetricsServer(metricsEndpoint)
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	fmt.Println(serveCmdConfig.String())
	fmt.Printf("Listening on %s\n", hub.Address())

	go func() {
		<-ctx.Done()
		cmdUtil.Logger.Infof("Shutting down hub")
		hub.Close()
	}()

	return hub.Serve()
}

// startMetricsServer exposes the metrics in Prometheus text format
func startMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		common.WriteMetrics(w)
	})
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cmdUtil.Logger.Errorf("Metrics server failed: %v", err)
		}
	}()
	cmdUtil.Logger.Infof("Serving metrics on http://%s/metrics", addr)
	return srv
}

// initConfig reads in serveCmdConfig file and ENV variables if set.
func initConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix(cmdUtil.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}
