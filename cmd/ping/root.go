package ping

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/dStream/cmd/util"
	"github.com/ValentinKolb/dStream/stream/client"
	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PingCmd sends ping envelopes to a peer and prints the round trip times
	PingCmd = &cobra.Command{
		Use:     "ping",
		Short:   "Ping a dStream peer",
		Long:    "Connect to a peer, send ping envelopes and print the round trip time of each response.",
		PreRunE: setupPingConfig,
		RunE:    run,
	}

	pingCount      = 4
	pingIntervalMs = 1000
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common stream flags to the ping command
	util.SetupStreamClientFlags(PingCmd)

	key := "count"
	PingCmd.Flags().Int(key, 4, util.WrapString("How many pings to send (0 = until interrupted)"))
	key = "interval"
	PingCmd.Flags().Int(key, 1000, util.WrapString("Delay between pings (in ms)"))
}

func setupPingConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}
	pingCount = viper.GetInt("count")
	pingIntervalMs = viper.GetInt("interval")
	return nil
}

func run(_ *cobra.Command, _ []string) error {
	config := util.GetClientConfig()

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

	timeout := time.Duration(config.TimeoutSecond) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	err = c.WaitForReady(ctx)
	cancel()
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %v", config.Endpoint, err)
	}

	fmt.Printf("PING %s (%s, %s)\n", config.Endpoint, viper.GetString("transport"), viper.GetString("serializer"))

	for i := 0; pingCount == 0 || i < pingCount; i++ {
		if i > 0 {
			time.Sleep(time.Duration(pingIntervalMs) * time.Millisecond)
		}

		start := time.Now()
		f, err := c.Send(common.MsgTPing, []byte("ping"))
		if err != nil {
			fmt.Printf("ping %d: %v\n", i, err)
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		res, err := f.Result(ctx)
		cancel()
		if err != nil {
			fmt.Printf("ping %d: %v\n", i, err)
			continue
		}

		fmt.Printf("response from %s: seq=%d type=%s time=%v\n",
			config.Endpoint, i, res.MsgType, time.Since(start).Round(time.Microsecond))
	}

	return nil
}
