package signal

import (
	"context"
	"github.com/ValentinKolb/svsock/cmd/util"
	"github.com/ValentinKolb/svsock/sock"
	"github.com/spf13/cobra"
)

var (
	handle *sock.Handle
	ctx    context.Context
	cancel context.CancelFunc

	// SignalCommands represents the signal command group
	SignalCommands = &cobra.Command{
		Use:                "signal",
		Short:              "Exchange fixed-width signal values with a peer",
		PersistentPreRunE:  openHandle,
		PersistentPostRunE: closeHandle,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags to the signal command
	util.SetupClientFlags(SignalCommands)

	// Add subcommands
	SignalCommands.AddCommand(getCmd)
	SignalCommands.AddCommand(putCmd)
	SignalCommands.AddCommand(doneCmd)
}

// openHandle connects to the peer, waiting until it listens
func openHandle(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	ctx, cancel = util.SignalContext()

	h, err := util.OpenHandle(ctx)
	if err != nil {
		cancel()
		return err
	}
	handle = h
	return nil
}

// closeHandle releases the handle
func closeHandle(_ *cobra.Command, _ []string) error {
	defer cancel()
	return handle.Close()
}
