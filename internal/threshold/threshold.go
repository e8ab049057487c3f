// Package threshold evaluates pass/fail assertions against a run summary.
package threshold

import (
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/torosent/sagaload/internal/metrics"
)

const (
	MetricResponseTime   = "response_time"   // latency of successful requests, ms
	MetricRequestsFailed = "requests_failed" // failed requests
	MetricRequests       = "requests"        // all completed requests
)

var (
	thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

	validAggregates = map[string][]string{
		MetricResponseTime:   {"avg", "min", "max", "p50", "p90", "p99"},
		MetricRequestsFailed: {"count", "rate"},
		MetricRequests:       {"count", "rate"},
	}
	validOperators = []string{"<", "<=", ">", ">=", "==", "!="}
)

// Threshold is one parsed assertion, e.g. "response_time:p99 < 500".
type Threshold struct {
	Metric    string
	Aggregate string
	Operator  string
	Value     float64
	Raw       string
}

// Result is the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

type Evaluator struct {
	thresholds []Threshold
}

func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks every threshold against summary, in declaration order.
func (e *Evaluator) Evaluate(summary metrics.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, summary))
	}
	return results
}

// AllPassed reports whether every result passed. An empty slice passes.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, summary metrics.Summary) Result {
	actual, err := extractMetricValue(t, summary)
	if err != nil {
		return Result{Threshold: t, Message: fmt.Sprintf("error: %v", err)}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "PASS"
	if !pass {
		status = "FAIL"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

// Parse reads "metric:aggregate operator value". Supported forms:
//
//	response_time:{avg,min,max,p50,p90,p99}   milliseconds
//	requests_failed:count                     failed requests
//	requests_failed:rate                      failed / total
//	requests:count                            completed requests
//	requests:rate                             throughput, requests/second
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'response_time:p99 < 500')", s)
	}
	metric, aggregate, operator := matches[1], matches[2], matches[3]

	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %w", matches[4], err)
	}

	aggregates, ok := validAggregates[metric]
	if !ok {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s, %s, %s)", metric, MetricResponseTime, MetricRequestsFailed, MetricRequests)
	}
	if !slices.Contains(aggregates, aggregate) {
		return Threshold{}, fmt.Errorf("unsupported aggregate %q for %s (supported: %s)", aggregate, metric, strings.Join(aggregates, ", "))
	}
	if !slices.Contains(validOperators, operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: %s)", operator, strings.Join(validOperators, " "))
	}

	return Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}, nil
}

// ParseMultiple parses every string and reports all failures at once.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var problems []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			problems = append(problems, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(problems) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(problems, "; "))
	}
	return result, nil
}

func extractMetricValue(t Threshold, s metrics.Summary) (float64, error) {
	switch t.Metric {
	case MetricResponseTime:
		switch t.Aggregate {
		case "avg":
			return s.AvgResponseTimeMs, nil
		case "min":
			return s.MinLatencyMs, nil
		case "max":
			return s.MaxLatencyMs, nil
		case "p50":
			return s.P50LatencyMs, nil
		case "p90":
			return s.P90LatencyMs, nil
		case "p99":
			return s.P99LatencyMs, nil
		}
	case MetricRequestsFailed:
		switch t.Aggregate {
		case "count":
			return float64(s.Failed), nil
		case "rate":
			if s.Total == 0 {
				return 0, nil
			}
			return float64(s.Failed) / float64(s.Total), nil
		}
	case MetricRequests:
		switch t.Aggregate {
		case "count":
			return float64(s.Total), nil
		case "rate":
			return s.ThroughputRPS, nil
		}
	}
	return 0, fmt.Errorf("unsupported threshold %s:%s", t.Metric, t.Aggregate)
}

func compareValues(actual float64, operator string, expected float64) bool {
	const epsilon = 1e-9
	equal := math.Abs(actual-expected) < epsilon

	switch operator {
	case "<":
		return actual < expected && !equal
	case "<=":
		return actual <= expected || equal
	case ">":
		return actual > expected && !equal
	case ">=":
		return actual >= expected || equal
	case "==":
		return equal
	case "!=":
		return !equal
	default:
		return false
	}
}
