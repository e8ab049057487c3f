package output_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/torosent/sagaload/internal/metrics"
	"github.com/torosent/sagaload/internal/output"
)

func fixedNow() time.Time {
	return time.Date(2024, time.May, 17, 9, 8, 7, 0, time.Local)
}

func TestReporterPrintsSummaryAndExports(t *testing.T) {
	c := metrics.NewCollector()
	for i := 0; i < 100; i++ {
		c.RecordSuccess(uint64(i % 7))
	}

	var out bytes.Buffer
	dir := t.TempDir()
	rep, err := output.Reporter{Out: &out, Dir: dir, Label: "gasa", RunID: "01J", Now: fixedNow}.Report(c, 2*time.Second)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}

	if !strings.Contains(out.String(), "Successful Requests: 100") {
		t.Errorf("summary missing success count:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Throughput: 50.00 requests/second") {
		t.Errorf("summary missing throughput:\n%s", out.String())
	}
	if rep.Summary.RunID != "01J" {
		t.Errorf("Summary.RunID = %q, want 01J", rep.Summary.RunID)
	}
	if want := filepath.Join(dir, "gasa-17-05-2024_09-08-07.csv"); rep.ExportPath != want {
		t.Errorf("ExportPath = %q, want %q", rep.ExportPath, want)
	}
	if len(rep.Rows) != 100 {
		t.Errorf("len(Rows) = %d, want 100", len(rep.Rows))
	}
}

func TestReporterAllFailures(t *testing.T) {
	c := metrics.NewCollector()
	for i := 0; i < 100; i++ {
		c.RecordFailure(1)
	}

	var out bytes.Buffer
	rep, err := output.Reporter{Out: &out, Dir: t.TempDir(), Label: "gasa", Now: fixedNow}.Report(c, time.Second)
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if !strings.Contains(out.String(), "Successful Requests: 0") || !strings.Contains(out.String(), "Average Response Time: 0.00 ms") {
		t.Errorf("unexpected summary:\n%s", out.String())
	}

	data, err := os.ReadFile(rep.ExportPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 101 {
		t.Fatalf("export has %d lines, want 101", len(lines))
	}
	for _, line := range lines[1:] {
		if !strings.HasSuffix(line, ",500") {
			t.Fatalf("row %q should have status 500", line)
		}
	}
}

func TestReporterPrintsSummaryBeforeExportFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(blocker, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	c := metrics.NewCollector()
	c.RecordSuccess(3)

	var out bytes.Buffer
	rep, err := output.Reporter{Out: &out, Dir: blocker, Label: "gasa", Now: fixedNow}.Report(c, time.Second)
	if err == nil {
		t.Fatal("Report() error = nil, want export failure")
	}
	if !strings.Contains(err.Error(), "export") {
		t.Errorf("error %q should mention export", err)
	}
	if !strings.Contains(out.String(), "Summary of Load Test:") {
		t.Error("summary should be printed before the export error is returned")
	}
	if rep.Summary.Total != 1 {
		t.Errorf("Summary.Total = %d, want 1", rep.Summary.Total)
	}
}

func TestReporterStructuredFormats(t *testing.T) {
	c := metrics.NewCollector()
	c.RecordSuccess(5)

	tests := []struct {
		format string
		want   string
	}{
		{output.FormatJSON, `"successful": 1`},
		{output.FormatYAML, "successful: 1"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var out bytes.Buffer
			_, err := output.Reporter{Out: &out, Format: tt.format, Dir: t.TempDir(), Label: "gasa", Now: fixedNow}.Report(c, time.Second)
			if err != nil {
				t.Fatalf("Report() error = %v", err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
			if strings.Contains(out.String(), "Summary of Load Test:") {
				t.Error("structured output should not include the text summary")
			}
		})
	}
}

func TestReporterRejectsUnknownFormat(t *testing.T) {
	c := metrics.NewCollector()
	_, err := output.Reporter{Out: &bytes.Buffer{}, Format: "xml", Dir: t.TempDir(), Label: "gasa"}.Report(c, time.Second)
	if err == nil {
		t.Fatal("Report() with unknown format should fail")
	}
}
