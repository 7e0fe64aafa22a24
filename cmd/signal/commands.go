package signal

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/svsock/cmd/util"
	"github.com/ValentinKolb/svsock/lib/bitvec"
	"github.com/ValentinKolb/svsock/sock"
	"github.com/spf13/cobra"
	"strconv"
	"time"
)

const pollInterval = time.Millisecond

var (
	getCmd = &cobra.Command{
		Use:   "get [width]",
		Short: "Receives signal values of the given bit width and prints them as hex",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := parseWidth(args[0])
			if err != nil {
				return err
			}
			count, _ := cmd.Flags().GetInt("count")
			ack, _ := cmd.Flags().GetBool("ack")

			words := make([]uint32, bitvec.WordCount(width))
			for i := 0; count <= 0 || i < count; i++ {
				err := util.PollNoData(ctx, pollInterval, func() error {
					return handle.Get(width, words)
				})
				if errors.Is(err, sock.ErrEndOfStream) {
					fmt.Println("end of stream")
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Println(bitvec.FormatHex(words, width))

				if ack {
					if err := handle.SignalDone(); err != nil {
						return err
					}
				}
			}
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [width] [value...]",
		Short: "Sends one or more signal values given in hex (0x prefix optional)",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			width, err := parseWidth(args[0])
			if err != nil {
				return err
			}
			for _, arg := range args[1:] {
				words, err := bitvec.ParseHex(arg, width)
				if err != nil {
					return fmt.Errorf("invalid value %s: %w", arg, err)
				}
				if err := handle.Put(width, words); err != nil {
					return err
				}
			}
			fmt.Printf("put %d value(s) successfully\n", len(args)-1)
			return nil
		},
	}
	doneCmd = &cobra.Command{
		Use:   "done",
		Short: "Sends the done sentinel acknowledging a consumed value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := handle.SignalDone(); err != nil {
				return err
			}
			fmt.Println("done sent successfully")
			return nil
		},
	}
)

func init() {
	getCmd.Flags().Int("count", 1, util.WrapString("Number of values to receive (0 = until end of stream)"))
	getCmd.Flags().Bool("ack", false, util.WrapString("Send the done sentinel after every received value"))
}

// parseWidth parses a positive bit width
func parseWidth(s string) (int, error) {
	width, err := strconv.Atoi(s)
	if err != nil || width <= 0 {
		return 0, fmt.Errorf("width must be a positive number, got %s", s)
	}
	return width, nil
}
