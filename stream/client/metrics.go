package client

import "github.com/VictoriaMetrics/metrics"

// Operational counters of the stream client. Exposed in Prometheus format by
// any process that serves metrics.WritePrometheus (see the serve command).
var (
	metricMessagesSent     = metrics.NewCounter("stream_messages_sent_total")
	metricMessagesReceived = metrics.NewCounter("stream_messages_received_total")
	metricUnsolicited      = metrics.NewCounter("stream_unsolicited_total")
	metricReconnects       = metrics.NewCounter("stream_reconnects_total")
	metricFuturesFailed    = metrics.NewCounter("stream_futures_failed_total")
)
