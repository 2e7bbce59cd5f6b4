package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/d4l-data4life/go-svc/pkg/logging"

	"github.com/lazaroMB/mcp-to-api/pkg/config"
)

// Metric definitions
// Ensure that this follows best practices for naming: https://prometheus.io/docs/practices/naming/
var (
	metricNamePrefix = "mcp_to_api"

	toolInvocations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricNamePrefix,
			Name:      "tool_invocations_total",
			Help:      "Number of tool invocations by resource slug and outcome.",
		},
		[]string{"mcp", "tool", "outcome"},
	)

	toolDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricNamePrefix,
			Name:      "tool_invocation_duration_seconds",
			Help:      "Duration of tool invocations including the downstream call.",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"mcp"},
	)
)

// AddBuildInfoMetric adds a static metric with the build information
func AddBuildInfoMetric() {
	err := prometheus.Register(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: metricNamePrefix,
			Name:      "build_info",
			Help:      "A metric with a constant '1' value labeled by version, branch, commit, and goversion.",
			ConstLabels: prometheus.Labels{
				"version":   config.Version,
				"branch":    config.Branch,
				"commit":    config.Commit,
				"goversion": config.GoVersion,
			},
		},
		func() float64 { return 1 },
	))
	if err != nil {
		logging.LogErrorf(err, "Error registering build info metric")
	}
}

// RegisterGatewayMetrics registers the tool invocation collectors
func RegisterGatewayMetrics() {
	for _, c := range []prometheus.Collector{toolInvocations, toolDuration} {
		if err := prometheus.Register(c); err != nil {
			logging.LogErrorf(err, "Error registering gateway metric")
		}
	}
}

// ObserveToolInvocation records one tool invocation outcome
func ObserveToolInvocation(mcpSlug, tool string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	toolInvocations.WithLabelValues(mcpSlug, tool, outcome).Inc()
	toolDuration.WithLabelValues(mcpSlug).Observe(duration.Seconds())
}
