package listen

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ValentinKolb/dStream/cmd/util"
	"github.com/ValentinKolb/dStream/stream/client"
	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ListenCmd connects to a peer and prints every unsolicited envelope
	ListenCmd = &cobra.Command{
		Use:   "listen",
		Short: "Print unsolicited envelopes from a dStream peer",
		Long:  "Connect to a peer and print every unsolicited envelope as it arrives. Reconnects are reported as epoch boundaries. Stop with Ctrl-C.",
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common stream flags to the listen command
	util.SetupStreamClientFlags(ListenCmd)

	key := "ack"
	ListenCmd.Flags().Bool(key, false, util.WrapString("Reply to every envelope with an event of the same correlation id"))
}

func run(_ *cobra.Command, _ []string) error {
	config := util.GetClientConfig()
	ack := viper.GetBool("ack")

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}
	t, err := util.GetTransport()
	if err != nil {
		return err
	}

	c := client.New(*config, t, s)
	defer c.Close()

	// Ctrl-C cancels the receive loop
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("listening on %s (%s, %s)\n", config.Endpoint, viper.GetString("transport"), viper.GetString("serializer"))

	for {
		env, err := c.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				fmt.Println("\nstopped")
				return nil
			}
			return err
		}

		if env.IsReconnectEvent() {
			fmt.Println("--- reconnected ---")
			continue
		}

		fmt.Printf("[%s] %s: %s\n", env.MsgType, env.CorrelationID, env.Content)

		if ack {
			if err := c.SendBack(common.MsgTEvent, env.CorrelationID, []byte("ack")); err != nil {
				fmt.Printf("failed to ack %s: %v\n", env.CorrelationID, err)
			}
		}
	}
}
