package output

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/torosent/sagaload/internal/metrics"
)

// Summary formats accepted by Reporter.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Reporter turns a finished collector into console output and a CSV export.
type Reporter struct {
	Out    io.Writer
	Format string
	Dir    string
	Label  string
	RunID  string
	// Now stamps the export name and the synthetic row dates. Defaults to time.Now.
	Now func() time.Time
}

// Report is what a Reporter produced for one run.
type Report struct {
	Summary     metrics.Summary
	Rows        []Row
	ExportPath  string
	GeneratedAt time.Time
}

// Report prints the summary, then writes the export. An export failure is
// returned only after the summary has been printed; the returned Report is
// populated either way.
func (r Reporter) Report(c *metrics.Collector, elapsed time.Duration) (Report, error) {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	out := r.Out
	if out == nil {
		out = os.Stdout
	}

	summary := c.Snapshot(elapsed)
	summary.RunID = r.RunID
	rep := Report{
		Summary:     summary,
		Rows:        BuildRows(now, c.Successes(), c.Failures()),
		GeneratedAt: now,
	}

	if err := printSummary(out, r.Format, summary); err != nil {
		return rep, fmt.Errorf("print summary: %w", err)
	}

	path, err := WriteCSV(r.Dir, r.Label, now, rep.Rows)
	rep.ExportPath = path
	if err != nil {
		return rep, fmt.Errorf("export: %w", err)
	}
	return rep, nil
}

func printSummary(w io.Writer, format string, s metrics.Summary) error {
	switch format {
	case FormatJSON:
		return PrintJSONReport(w, s)
	case FormatYAML:
		return PrintYAMLReport(w, s)
	case FormatText, "":
		PrintReport(w, s)
		return nil
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}
