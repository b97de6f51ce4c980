package serve

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ValentinKolb/dStream/cmd/util"
	"github.com/ValentinKolb/dStream/stream/common"
	"github.com/ValentinKolb/dStream/stream/teststream"
	"github.com/VictoriaMetrics/metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// ServeCmd starts an echo peer, mainly for development and benchmarks
	ServeCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start a dStream echo peer",
		Long:  `Start a peer that echoes every received envelope back to its sender. Intended for development, testing and benchmarks. The configuration can be set via command line flags or environment variables. The format of the environment variables is DSTREAM_<flag> (e.g. DSTREAM_ENDPOINT=0.0.0.0:4004)`,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return util.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:4004", util.WrapString("The address on which the peer will listen (host:port for tcp, a socket path for unix)"))

	key = "metrics-endpoint"
	ServeCmd.PersistentFlags().String(key, "", util.WrapString("Optional address for a Prometheus /metrics endpoint (e.g. 0.0.0.0:9090, empty = disabled)"))

	key = "push-interval"
	ServeCmd.PersistentFlags().Int(key, 0, util.WrapString("Push an unsolicited event to all connected clients every N ms (0 = disabled)"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// run starts the echo peer and blocks until interrupted
func run(_ *cobra.Command, _ []string) error {
	common.InitLoggers(viper.GetString("log-level"))

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	network := viper.GetString("transport")
	endpoint := viper.GetString("endpoint")

	requestsServed := metrics.GetOrCreateCounter("peer_requests_served_total")
	handler := func(env *common.Envelope) *common.Envelope {
		requestsServed.Inc()
		return common.NewEnvelope(env.MsgType, env.CorrelationID, env.Content)
	}

	peer, err := teststream.Listen(network, endpoint, s, handler)
	if err != nil {
		return err
	}
	defer peer.Close()

	fmt.Printf("echo peer listening on %s (%s, %s)\n", peer.Addr(), network, viper.GetString("serializer"))

	// optional Prometheus endpoint
	if metricsEndpoint := viper.GetString("metrics-endpoint"); metricsEndpoint != "" {
		go func() {
			http.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
				metrics.WritePrometheus(w, true)
			})
			fmt.Printf("metrics on http://%s/metrics\n", metricsEndpoint)
			if err := http.ListenAndServe(metricsEndpoint, nil); err != nil {
				fmt.Printf("metrics endpoint failed: %v\n", err)
			}
		}()
	}

	// optional periodic unsolicited events
	stopPush := make(chan struct{})
	defer close(stopPush)
	if interval := viper.GetInt("push-interval"); interval > 0 {
		go func() {
			ticker := time.NewTicker(time.Duration(interval) * time.Millisecond)
			defer ticker.Stop()
			seq := 0
			for {
				select {
				case <-ticker.C:
					env := common.NewEnvelope(common.MsgTEvent, fmt.Sprintf("event-%d", seq), []byte(time.Now().Format(time.RFC3339)))
					_ = peer.Push(env) // no client connected is fine
					seq++
				case <-stopPush:
					return
				}
			}
		}()
	}

	// block until interrupted
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	fmt.Println("\nshutting down")
	return nil
}
