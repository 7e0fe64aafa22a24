package line

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

	// LineCommands represents the line command group
	LineCommands = &cobra.Command{
		Use:                "line",
		Short:              "Exchange newline delimited text with a peer",
		PersistentPreRunE:  openHandle,
		PersistentPostRunE: closeHandle,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common connection flags to the line command
	util.SetupClientFlags(LineCommands)

	// Add subcommands
	LineCommands.AddCommand(sendCmd)
	LineCommands.AddCommand(recvCmd)
	LineCommands.AddCommand(chatCmd)
}

// openHandle connects to the peer, waiting until it listens
func openHandle(cmd *cobra.Command, _ []string) error {
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
