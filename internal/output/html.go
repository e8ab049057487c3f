package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/sagaload/internal/metrics"
	"github.com/torosent/sagaload/internal/threshold"
)

const (
	plotWidth   = 960
	plotHeight  = 320
	plotPadding = 48
	// Beyond this many rows the plot keeps every Nth point.
	maxPlotPoints = 5000
)

// ReportMetadata describes the run configuration shown in the report header.
type ReportMetadata struct {
	TargetURL   string
	Mode        string
	Concurrency int
	Requested   int
}

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Summary          metrics.Summary
	Metadata         ReportMetadata
	ExportPath       string
	Plot             scatterPlot
	ThresholdSummary *ThresholdSummary
}

type ThresholdSummary struct {
	Total   int
	Passed  int
	Failed  int
	Results []threshold.Result
}

type scatterPlot struct {
	Width, Height int
	Points        []plotPoint
	XTicks        []plotTick
	YTicks        []plotTick
	Left, Right   int
	Top, Bottom   int
}

type plotPoint struct {
	X, Y    float64
	Success bool
	Title   string
}

type plotTick struct {
	Pos   float64
	Label string
}

// GenerateHTMLReport renders a standalone page with the run summary and an
// SVG scatter plot of the export rows (synthetic timestamp vs response time).
func GenerateHTMLReport(w io.Writer, rep Report, thresholdResults []threshold.Result, metadata ReportMetadata) error {
	var ts *ThresholdSummary
	if len(thresholdResults) > 0 {
		ts = &ThresholdSummary{Total: len(thresholdResults), Results: thresholdResults}
		for _, r := range thresholdResults {
			if r.Pass {
				ts.Passed++
			} else {
				ts.Failed++
			}
		}
	}

	generated := rep.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}

	data := HTMLReportData{
		GeneratedAt:      generated.Format(time.RFC3339),
		Summary:          rep.Summary,
		Metadata:         metadata,
		ExportPath:       rep.ExportPath,
		Plot:             buildScatterPlot(rep.Rows),
		ThresholdSummary: ts,
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(part, total int64) string {
			if total == 0 {
				return "0.0"
			}
			return fmt.Sprintf("%.1f", (float64(part)/float64(total))*100)
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

func buildScatterPlot(rows []Row) scatterPlot {
	p := scatterPlot{
		Width:  plotWidth,
		Height: plotHeight,
		Left:   plotPadding,
		Right:  plotWidth - plotPadding/2,
		Top:    plotPadding / 2,
		Bottom: plotHeight - plotPadding,
	}
	if len(rows) == 0 {
		return p
	}

	var maxMs uint64
	for _, r := range rows {
		if r.ResponseTimeMs > maxMs {
			maxMs = r.ResponseTimeMs
		}
	}
	if maxMs == 0 {
		maxMs = 1
	}

	first := rows[0].Timestamp
	span := rows[len(rows)-1].Timestamp.Sub(first).Seconds()
	if span <= 0 {
		span = 1
	}
	xScale := float64(p.Right-p.Left) / span
	yScale := float64(p.Bottom-p.Top) / float64(maxMs)

	step := 1
	if len(rows) > maxPlotPoints {
		step = (len(rows) + maxPlotPoints - 1) / maxPlotPoints
	}
	p.Points = make([]plotPoint, 0, len(rows)/step+1)
	for i := 0; i < len(rows); i += step {
		r := rows[i]
		p.Points = append(p.Points, plotPoint{
			X:       float64(p.Left) + r.Timestamp.Sub(first).Seconds()*xScale,
			Y:       float64(p.Bottom) - float64(r.ResponseTimeMs)*yScale,
			Success: r.Status == StatusSuccess,
			Title:   fmt.Sprintf("%s %d ms (%d)", r.Timestamp.Format(RowTimeLayout), r.ResponseTimeMs, r.Status),
		})
	}

	const ticks = 4
	for i := 0; i <= ticks; i++ {
		frac := float64(i) / ticks
		p.YTicks = append(p.YTicks, plotTick{
			Pos:   float64(p.Bottom) - frac*float64(p.Bottom-p.Top),
			Label: fmt.Sprintf("%.0f", frac*float64(maxMs)),
		})
		at := first.Add(time.Duration(frac * span * float64(time.Second)))
		p.XTicks = append(p.XTicks, plotTick{
			Pos:   float64(p.Left) + frac*float64(p.Right-p.Left),
			Label: at.Format("15:04:05"),
		})
	}
	return p
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>sagaload report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container { max-width: 1100px; margin: 0 auto; background: white; border-radius: 8px; box-shadow: 0 2px 8px rgba(0,0,0,0.1); overflow: hidden; }
        header { background: #1f3a5f; color: white; padding: 24px 32px; }
        header h1 { font-size: 1.6rem; margin-bottom: 6px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 32px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(200px, 1fr)); gap: 16px; margin-bottom: 32px; }
        .card { background: #f8f9fa; border-radius: 8px; padding: 16px; border-left: 4px solid #1f3a5f; }
        .card h3 { font-size: 0.8rem; color: #6c757d; text-transform: uppercase; letter-spacing: 0.5px; margin-bottom: 8px; }
        .card .value { font-size: 1.7rem; font-weight: bold; }
        .card .subvalue { font-size: 0.85rem; color: #6c757d; margin-top: 4px; }
        .card.success { border-left-color: #10b981; }
        .card.error { border-left-color: #ef4444; }
        .section { margin-bottom: 32px; }
        .section h2 { font-size: 1.3rem; margin-bottom: 16px; padding-bottom: 8px; border-bottom: 2px solid #e5e7eb; }
        table { width: 100%; border-collapse: collapse; }
        th, td { text-align: left; padding: 10px; border-bottom: 1px solid #e5e7eb; }
        th { background: #f8f9fa; font-size: 0.85rem; text-transform: uppercase; color: #4b5563; }
        .badge { display: inline-block; padding: 2px 10px; border-radius: 12px; font-size: 0.8rem; font-weight: 600; }
        .badge-success { background: #d1fae5; color: #065f46; }
        .badge-error { background: #fee2e2; color: #991b1b; }
        svg text { font-size: 11px; fill: #6c757d; }
        .no-data { text-align: center; padding: 32px; color: #6c757d; font-style: italic; }
    </style>
</head>
<body>
    <div class="container">
        <header>
            <h1>sagaload report</h1>
            {{if .Metadata.TargetURL}}<div class="meta">Target: {{.Metadata.TargetURL}}{{if .Metadata.Mode}} | Mode: {{.Metadata.Mode}}{{end}}</div>{{end}}
            <div class="meta">Generated: {{.GeneratedAt}}{{if .Summary.RunID}} | Run: {{.Summary.RunID}}{{end}} | Duration: {{formatFloat .Summary.DurationSeconds}} s</div>
            {{if .Metadata.Concurrency}}<div class="meta">Workers: {{.Metadata.Concurrency}} | Requested: {{.Metadata.Requested}}</div>{{end}}
        </header>

        <div class="content">
            <div class="grid">
                <div class="card">
                    <h3>Total Requests</h3>
                    <div class="value">{{.Summary.Total}}</div>
                </div>
                <div class="card success">
                    <h3>Successful</h3>
                    <div class="value">{{.Summary.Successful}}</div>
                    <div class="subvalue">{{formatPercent .Summary.Successful .Summary.Total}}%</div>
                </div>
                <div class="card error">
                    <h3>Failed</h3>
                    <div class="value">{{.Summary.Failed}}</div>
                    <div class="subvalue">{{formatPercent .Summary.Failed .Summary.Total}}%</div>
                </div>
                <div class="card">
                    <h3>Average Response Time</h3>
                    <div class="value">{{formatFloat .Summary.AvgResponseTimeMs}} ms</div>
                    <div class="subvalue">p50 {{formatFloat .Summary.P50LatencyMs}} / p90 {{formatFloat .Summary.P90LatencyMs}} / p99 {{formatFloat .Summary.P99LatencyMs}}</div>
                </div>
                <div class="card">
                    <h3>Throughput</h3>
                    <div class="value">{{formatFloat .Summary.ThroughputRPS}}</div>
                    <div class="subvalue">requests/second</div>
                </div>
            </div>

            <div class="section">
                <h2>Response Time per Request</h2>
                {{if .Plot.Points}}
                <svg id="scatter" viewBox="0 0 {{.Plot.Width}} {{.Plot.Height}}" width="100%" role="img" aria-label="response time scatter plot">
                    <line x1="{{.Plot.Left}}" y1="{{.Plot.Bottom}}" x2="{{.Plot.Right}}" y2="{{.Plot.Bottom}}" stroke="#9ca3af"/>
                    <line x1="{{.Plot.Left}}" y1="{{.Plot.Top}}" x2="{{.Plot.Left}}" y2="{{.Plot.Bottom}}" stroke="#9ca3af"/>
                    {{range .Plot.YTicks}}<text x="{{$.Plot.Left}}" y="{{printf "%.1f" .Pos}}" dx="-6" dy="4" text-anchor="end">{{.Label}}</text>
                    {{end}}
                    {{range .Plot.XTicks}}<text x="{{printf "%.1f" .Pos}}" y="{{$.Plot.Bottom}}" dy="16" text-anchor="middle">{{.Label}}</text>
                    {{end}}
                    {{range .Plot.Points}}<circle cx="{{printf "%.1f" .X}}" cy="{{printf "%.1f" .Y}}" r="2.5" fill="{{if .Success}}#2563eb{{else}}#dc2626{{end}}" fill-opacity="0.7"><title>{{.Title}}</title></circle>
                    {{end}}
                </svg>
                {{else}}
                <div class="no-data">No requests were recorded.</div>
                {{end}}
                {{if .ExportPath}}<p class="meta">Data: {{.ExportPath}}</p>{{end}}
            </div>

            {{if .ThresholdSummary}}
            <div class="section">
                <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} Passed)</h2>
                <table>
                    <thead>
                        <tr><th>Threshold</th><th>Expected</th><th>Actual</th><th>Status</th></tr>
                    </thead>
                    <tbody>
                        {{range .ThresholdSummary.Results}}
                        <tr>
                            <td>{{.Threshold.Raw}}</td>
                            <td>{{.Threshold.Operator}} {{formatFloat .Threshold.Value}}</td>
                            <td>{{formatFloat .Actual}}</td>
                            <td>{{if .Pass}}<span class="badge badge-success">PASS</span>{{else}}<span class="badge badge-error">FAIL</span>{{end}}</td>
                        </tr>
                        {{end}}
                    </tbody>
                </table>
            </div>
            {{end}}
        </div>
    </div>
</body>
</html>
`
