package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dStream/cmd/listen"
	"github.com/ValentinKolb/dStream/cmd/perf"
	"github.com/ValentinKolb/dStream/cmd/ping"
	"github.com/ValentinKolb/dStream/cmd/serve"
	"github.com/ValentinKolb/dStream/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dstream",
		Short: "asynchronous stream messaging client",
		Long: fmt.Sprintf(`dStream (v%s)

An asynchronous, correlation-based request/response client for a
persistent connection to a single remote peer, written in Go.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dStream",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dStream v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(ping.PingCmd)
	RootCmd.AddCommand(listen.ListenCmd)
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
