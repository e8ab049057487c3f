package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/torosent/sagaload/internal/metrics"
	"github.com/torosent/sagaload/internal/threshold"
)

const rule = "-------------------------------------"

// PrintReport writes the fixed-format console summary followed by the
// latency distribution of successful requests.
func PrintReport(w io.Writer, s metrics.Summary) {
	fmt.Fprintln(w, "Summary of Load Test:")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Total Requests: %d\n", s.Total)
	fmt.Fprintf(w, "Successful Requests: %d\n", s.Successful)
	fmt.Fprintf(w, "Failed Requests: %d\n", s.Failed)
	fmt.Fprintf(w, "Total Duration: %.2f seconds\n", s.DurationSeconds)
	fmt.Fprintf(w, "Average Response Time: %.2f ms\n", s.AvgResponseTimeMs)
	fmt.Fprintf(w, "Throughput: %.2f requests/second\n", s.ThroughputRPS)
	fmt.Fprintln(w, rule)
	if s.Successful == 0 {
		return
	}
	fmt.Fprintln(w, "Latency (successful requests):")
	fmt.Fprintf(w, "  Min: %.2f ms\n", s.MinLatencyMs)
	fmt.Fprintf(w, "  P50: %.2f ms\n", s.P50LatencyMs)
	fmt.Fprintf(w, "  P90: %.2f ms\n", s.P90LatencyMs)
	fmt.Fprintf(w, "  P99: %.2f ms\n", s.P99LatencyMs)
	fmt.Fprintf(w, "  Max: %.2f ms\n", s.MaxLatencyMs)
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, s metrics.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

func PrintYAMLReport(w io.Writer, s metrics.Summary) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// PrintThresholds writes one line per evaluated threshold.
func PrintThresholds(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	passed := 0
	for _, r := range results {
		if r.Pass {
			passed++
		}
	}
	fmt.Fprintf(w, "Thresholds: %d/%d passed\n", passed, len(results))
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}
