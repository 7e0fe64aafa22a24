package line

import (
	"bufio"
	"fmt"
	"github.com/ValentinKolb/svsock/cmd/util"
	"github.com/spf13/cobra"
	"os"
	"strings"
	"time"
)

const pollInterval = time.Millisecond

var (
	sendCmd = &cobra.Command{
		Use:   "send [text...]",
		Short: "Sends the arguments joined by spaces as one line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := handle.WriteLine(strings.Join(args, " ")); err != nil {
				return err
			}
			fmt.Println("sent successfully")
			return nil
		},
	}
	recvCmd = &cobra.Command{
		Use:   "recv",
		Short: "Receives lines and prints them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			count, _ := cmd.Flags().GetInt("count")
			for i := 0; count <= 0 || i < count; i++ {
				var line string
				err := util.PollNoData(ctx, pollInterval, func() error {
					var err error
					line, err = handle.ReadLine()
					return err
				})
				if err != nil {
					return err
				}
				fmt.Println(line)
			}
			return nil
		},
	}
	chatCmd = &cobra.Command{
		Use:   "chat",
		Short: "Sends every line read from stdin and prints the reply",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				if err := handle.WriteLine(scanner.Text()); err != nil {
					return err
				}
				var reply string
				err := util.PollNoData(ctx, pollInterval, func() error {
					var err error
					reply, err = handle.ReadLine()
					return err
				})
				if err != nil {
					return err
				}
				fmt.Println(reply)
			}
			return scanner.Err()
		},
	}
)

func init() {
	recvCmd.Flags().Int("count", 1, util.WrapString("Number of lines to receive (0 = until the connection fails)"))
}
