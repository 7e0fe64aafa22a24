package cmd

import (
	"fmt"
	"github.com/ValentinKolb/svsock/cmd/line"
	"github.com/ValentinKolb/svsock/cmd/perf"
	"github.com/ValentinKolb/svsock/cmd/serve"
	"github.com/ValentinKolb/svsock/cmd/signal"
	"github.com/ValentinKolb/svsock/sock/transport"
	"github.com/spf13/cobra"
	"os"
	"strings"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "svsock",
		Short: "framed signal and line sockets for co-simulation",
		Long: fmt.Sprintf(`svsock (v%s)

Exchange fixed-width signal values and text lines between a process driving a
simulation and a peer process, over TCP or Unix domain sockets.

Supported address schemes: %s`, Version, strings.Join(transport.AvailableSchemes(), ", ")),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of svsock",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("svsock v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(signal.SignalCommands)
	RootCmd.AddCommand(line.LineCommands)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
