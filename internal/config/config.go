// Package config loads sagaload settings from flags and an optional YAML/JSON file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"
)

// Mode selects which requests the workers issue.
type Mode string

const (
	ModePost    Mode = "post"
	ModeGet     Mode = "get"
	ModePostGet Mode = "post-get"
)

// OutputFormat selects how the summary is printed.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatYAML OutputFormat = "yaml"
)

const (
	DefaultTargetURL   = "http://localhost:8080/sagas"
	DefaultTotal       = 100
	DefaultConcurrency = 10
	DefaultOutputDir   = "bi/data"
	DefaultLabel       = "gasa"
)

type Config struct {
	TargetURL   string            `mapstructure:"target"`
	Mode        Mode              `mapstructure:"mode"`
	Headers     map[string]string `mapstructure:"headers"`
	Total       int               `mapstructure:"total"`
	Concurrency int               `mapstructure:"concurrency"`
	Rate        int               `mapstructure:"rate"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	OutputDir   string            `mapstructure:"output_dir"`
	Label       string            `mapstructure:"label"`
	Format      OutputFormat      `mapstructure:"format"`
	HTMLOutput  string            `mapstructure:"html_output"`
	Thresholds  []string          `mapstructure:"thresholds"`
	Progress    bool              `mapstructure:"progress"`
	LogLevel    string            `mapstructure:"log_level"`
	LogErrors   bool              `mapstructure:"log_errors"`
	ConfigFile  string            `mapstructure:"-"`
	Tracing     TracingConfig     `mapstructure:"tracing"`
}

// TracingConfig controls OpenTelemetry export of request spans.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
	Propagate   *bool   `mapstructure:"propagate"` // nil means true
}

// Enabled reports whether an OTLP endpoint is configured directly or through
// OTEL_EXPORTER_OTLP_ENDPOINT.
func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != "" || strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")) != ""
}

// ShouldPropagate reports whether W3C trace headers go out with each request.
func (t TracingConfig) ShouldPropagate() bool {
	return t.Propagate == nil || *t.Propagate
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if strings.TrimSpace(c.TargetURL) == "" {
		issues = append(issues, "target is required (use --help for usage information)")
	} else if u, err := url.Parse(c.TargetURL); err != nil || u.Scheme == "" || u.Host == "" {
		issues = append(issues, fmt.Sprintf("target %q must be an absolute http(s) URL", c.TargetURL))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		issues = append(issues, fmt.Sprintf("target scheme %q is not supported", u.Scheme))
	}

	switch c.Mode {
	case ModePost, ModeGet, ModePostGet:
	default:
		issues = append(issues, fmt.Sprintf("mode %q is not one of post, get, post-get", c.Mode))
	}

	if c.Concurrency < 1 {
		issues = append(issues, "concurrency must be >= 1")
	}
	if c.Total < 0 {
		issues = append(issues, "total must be >= 0")
	}
	if c.Rate < 0 {
		issues = append(issues, "rate must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "timeout must be >= 0")
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		issues = append(issues, "output-dir is required")
	}
	if strings.TrimSpace(c.Label) == "" {
		issues = append(issues, "label is required")
	} else if strings.ContainsAny(c.Label, `/\`) {
		issues = append(issues, "label must not contain path separators")
	}

	switch c.Format {
	case FormatText, FormatJSON, FormatYAML:
	default:
		issues = append(issues, fmt.Sprintf("format %q is not one of text, json, yaml", c.Format))
	}
	if c.Progress && c.Format != FormatText {
		issues = append(issues, "progress and structured output formats are mutually exclusive")
	}

	switch strings.ToLower(c.LogLevel) {
	case "", "debug", "info", "warn", "error":
	default:
		issues = append(issues, fmt.Sprintf("log-level %q is not one of debug, info, warn, error", c.LogLevel))
	}

	issues = append(issues, validateTracing(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracing(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing: sample_rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: unsupported protocol %q", t.Protocol))
	}
	return issues
}
