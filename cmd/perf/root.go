package perf

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/dStream/cmd/util"
	"github.com/ValentinKolb/dStream/stream/client"
	"github.com/ValentinKolb/dStream/stream/common"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// PerfCmd measures request/response throughput and latency against a peer
	PerfCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for dStream peers",
		Long:    "Send a fixed number of requests from concurrent workers and report throughput and latency percentiles.",
		PreRunE: processPerfConfig,
		RunE:    run,
	}

	perfNumThreads  = 10
	perfNumRequests = 10000
	perfValueSize   = 64
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitClientConfig)

	// Add common stream flags to the perf command
	util.SetupStreamClientFlags(PerfCmd)

	key := "threads"
	PerfCmd.Flags().Int(key, 10, util.WrapString("Number of concurrent workers"))
	key = "requests"
	PerfCmd.Flags().Int(key, 10000, util.WrapString("Total number of requests to send"))
	key = "value-size"
	PerfCmd.Flags().Int(key, 64, util.WrapString("Size of the request payload (in bytes)"))
	key = "csv"
	PerfCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	perfNumThreads = viper.GetInt("threads")
	perfNumRequests = viper.GetInt("requests")
	perfValueSize = viper.GetInt("value-size")

	return nil
}

func run(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for dStream peers")

	config := util.GetClientConfig()

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(config.String())
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Requests: %d\n", perfNumRequests)
	fmt.Printf("Payload: %d bytes\n", perfValueSize)
	fmt.Println()

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

	fmt.Println("starting test...")

	payload := make([]byte, perfValueSize)
	timer := gometrics.NewTimer()
	var errCount atomic.Int64
	var remaining atomic.Int64
	remaining.Store(int64(perfNumRequests))

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < perfNumThreads; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for remaining.Add(-1) >= 0 {
				reqStart := time.Now()

				f, err := c.Send(common.MsgTPing, payload)
				if err != nil {
					errCount.Add(1)
					continue
				}

				ctx, cancel := context.WithTimeout(context.Background(), timeout)
				_, err = f.Result(ctx)
				cancel()
				if err != nil {
					errCount.Add(1)
					continue
				}

				timer.UpdateSince(reqStart)
			}
		}()
	}
	wg.Wait()
	elapsed := time.Since(start)

	// Print results
	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	opsPerSec := float64(timer.Count()) / elapsed.Seconds()

	fmt.Println()
	fmt.Printf("%-12s%d\n", "completed", timer.Count())
	fmt.Printf("%-12s%d\n", "errors", errCount.Load())
	fmt.Printf("%-12s%v\n", "elapsed", elapsed.Round(time.Millisecond))
	fmt.Printf("%-12s%.0f ops/sec\n", "throughput", opsPerSec)
	fmt.Printf("%-12s%v\n", "mean", time.Duration(timer.Mean()).Round(time.Microsecond))
	fmt.Printf("%-12s%v\n", "p50", time.Duration(ps[0]).Round(time.Microsecond))
	fmt.Printf("%-12s%v\n", "p95", time.Duration(ps[1]).Round(time.Microsecond))
	fmt.Printf("%-12s%v\n", "p99", time.Duration(ps[2]).Round(time.Microsecond))
	fmt.Printf("%-12s%v\n", "max", time.Duration(timer.Max()).Round(time.Microsecond))

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, config, timer, errCount.Load(), elapsed); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, config *common.ClientConfig, timer gometrics.Timer, errCount int64, elapsed time.Duration) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	header := []string{
		"Completed", "Errors", "ElapsedMs", "OpsPerSec",
		"MeanNs", "P50Ns", "P95Ns", "P99Ns", "MaxNs",
		"Endpoint", "TimeoutSec", "Serializer", "Transport",
		"Threads", "Requests", "ValueSizeBytes",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	ps := timer.Percentiles([]float64{0.5, 0.95, 0.99})
	row := []string{
		strconv.FormatInt(timer.Count(), 10),
		strconv.FormatInt(errCount, 10),
		strconv.FormatInt(elapsed.Milliseconds(), 10),
		fmt.Sprintf("%.0f", float64(timer.Count())/elapsed.Seconds()),
		fmt.Sprintf("%.0f", timer.Mean()),
		fmt.Sprintf("%.0f", ps[0]),
		fmt.Sprintf("%.0f", ps[1]),
		fmt.Sprintf("%.0f", ps[2]),
		strconv.FormatInt(timer.Max(), 10),
		config.Endpoint,
		strconv.Itoa(config.TimeoutSecond),
		viper.GetString("serializer"),
		viper.GetString("transport"),
		strconv.Itoa(perfNumThreads),
		strconv.Itoa(perfNumRequests),
		strconv.Itoa(perfValueSize),
	}
	if err := writer.Write(row); err != nil {
		return fmt.Errorf("failed to write CSV row: %v", err)
	}

	return nil
}
