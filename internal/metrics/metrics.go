package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
)

var (
	// API metrics
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polytools_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"api", "endpoint", "status"}, // gamma/clob/data/brave/coingecko, /markets, success/error
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polytools_api_request_duration_seconds",
			Help:    "Duration of API requests",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 20},
		},
		[]string{"api", "endpoint"},
	)

	// Command metrics
	CommandsRun = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polytools_commands_total",
			Help: "Total number of CLI commands run",
		},
		[]string{"command", "status"},
	)

	CommandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "polytools_command_duration_seconds",
			Help:    "Duration of CLI commands",
			Buckets: []float64{.25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"command"},
	)

	// Scanner output
	MarketsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polytools_markets_skipped_total",
			Help: "Markets dropped because a field could not be parsed",
		},
		[]string{"reason"}, // decode, prices
	)
)

// RecordAPIRequest records API request metrics
func RecordAPIRequest(api, endpoint string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	APIRequests.WithLabelValues(api, endpoint, status).Inc()
	APIRequestDuration.WithLabelValues(api, endpoint).Observe(duration.Seconds())
}

// RecordCommand records one CLI command invocation
func RecordCommand(command string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	CommandsRun.WithLabelValues(command, status).Inc()
	CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordSkippedMarket counts a market record dropped during formatting
func RecordSkippedMarket(reason string) {
	MarketsSkipped.WithLabelValues(reason).Inc()
}

// Push sends the default registry to a Prometheus Pushgateway. Commands are
// short-lived processes, so there is nothing to scrape.
func Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return nil
	}
	err := push.New(gatewayURL, job).
		Gatherer(prometheus.DefaultGatherer).
		PushContext(ctx)
	if err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
