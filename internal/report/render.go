package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// textWidth is the width of separator lines in the plain text report.
const textWidth = 50

// Rendered holds the two representations of one batch.
type Rendered struct {
	// HTML is a complete HTML document.
	HTML string

	// Text is the plain text equivalent of HTML.
	Text string
}

// Render renders batch as HTML and plain text.
// Rendering is deterministic: the same batch always yields the same output.
func Render(batch *model.Batch) (Rendered, error) {
	v := newView(batch)

	html, err := renderHTML(v)
	if err != nil {
		return Rendered{}, err
	}

	return Rendered{
		HTML: html,
		Text: renderText(v),
	}, nil
}

// htmlTemplate is the HTML report. html/template escapes URLs and failure
// reasons, which come from configuration and remote responses.
var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Lighthouse Report</title>
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
  .container { max-width: 640px; margin: 0 auto; padding: 20px; }
  h1 { color: #2c3e50; border-bottom: 2px solid #3498db; padding-bottom: 10px; }
  h2 { color: #34495e; margin-top: 30px; word-break: break-all; }
  .banner { padding: 10px; border-radius: 4px; margin: 10px 0; font-weight: bold; }
  .banner-alert { background: #f8d7da; border: 1px solid #e74c3c; }
  .banner-quiet { background: #d4edda; border: 1px solid #27ae60; }
  .url-section { background: #f9f9f9; padding: 15px; border-radius: 8px; margin: 20px 0; }
  .score-table { width: 100%; border-collapse: collapse; margin: 15px 0; }
  .score-table th, .score-table td { padding: 10px; text-align: left; border-bottom: 1px solid #ddd; }
  .score-table th { background: #3498db; color: white; }
  .improved { color: #27ae60; font-weight: bold; }
  .declined { color: #e74c3c; font-weight: bold; }
  .no-change { color: #7f8c8d; }
  .alert { background: #fff3cd; border: 1px solid #ffc107; padding: 10px; border-radius: 4px; margin: 10px 0; }
  .score-badge { display: inline-block; padding: 4px 12px; border-radius: 20px; font-weight: bold; }
  .score-good { background: #d4edda; color: #155724; }
  .score-ok { background: #fff3cd; color: #856404; }
  .score-poor { background: #f8d7da; color: #721c24; }
</style>
</head>
<body>
<div class="container">
<h1>Lighthouse Report</h1>
<p><strong>Run Date:</strong> <span class="run-date">{{.Date}}</span></p>
<p><strong>Audited:</strong> <span class="processed">{{.Processed}}</span> URL(s), <span class="failed">{{len .Failures}}</span> failed</p>
<div class="banner {{if .HasChanges}}banner-alert{{else}}banner-quiet{{end}}">{{.Banner}}</div>
{{- if not .Sections}}
<p class="no-results">` + noResults + `</p>
{{- end}}
{{- range .Sections}}
<div class="url-section">
<h2>{{.URL}}</h2>
{{- if .HasChanges}}
<div class="alert">⚠️ ` + urlAlert + `</div>
{{- end}}
<table class="score-table">
<tr><th>Category</th><th>Current</th><th>Tier</th><th>Previous</th><th>Change</th></tr>
{{- range .Rows}}
<tr class="category-row">
<td class="label">{{.Label}}</td>
<td><span class="score-badge score-{{.Tier}}">{{.Score}}</span></td>
<td class="tier">{{.Tier}}</td>
<td class="previous">{{.Previous}}</td>
<td><span class="{{.Trend}}">{{.Indicator}}</span></td>
</tr>
{{- end}}
</table>
</div>
{{- end}}
{{- if .Failures}}
<div class="failures">
<h2>Failed audits</h2>
<ul>
{{- range .Failures}}
<li><code>{{.URL}}</code>: {{.Reason}}</li>
{{- end}}
</ul>
</div>
{{- end}}
</div>
</body>
</html>
`))

// renderHTML executes the HTML template for v.
func renderHTML(v view) (string, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, v); err != nil {
		return "", fmt.Errorf("failed to render HTML report: %w", err)
	}
	return buf.String(), nil
}

// renderText writes v as plain text.
func renderText(v view) string {
	var sb strings.Builder

	sb.WriteString(strings.Repeat("=", textWidth))
	sb.WriteString("\n")
	sb.WriteString("LIGHTHOUSE REPORT\n")
	sb.WriteString(strings.Repeat("=", textWidth))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Run Date: %s\n", v.Date))
	sb.WriteString(fmt.Sprintf("Audited:  %d URL(s), %d failed\n", v.Processed, len(v.Failures)))
	sb.WriteString(fmt.Sprintf("Status:   %s\n", v.Banner))
	sb.WriteString("\n")

	if len(v.Sections) == 0 {
		sb.WriteString(noResults)
		sb.WriteString("\n\n")
	}

	for _, s := range v.Sections {
		sb.WriteString(s.URL)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat("-", len(s.URL)))
		sb.WriteString("\n\n")

		if s.HasChanges {
			sb.WriteString("  ⚠️  " + urlAlert + "\n\n")
		}

		for _, r := range s.Rows {
			sb.WriteString(fmt.Sprintf("  %-20s %3d %-4s (was %s) %s\n",
				r.Label, r.Score, r.Tier, r.Previous, r.Indicator))
		}
		sb.WriteString("\n")
	}

	if len(v.Failures) > 0 {
		sb.WriteString("Failed audits\n")
		sb.WriteString(strings.Repeat("-", len("Failed audits")))
		sb.WriteString("\n\n")
		for _, f := range v.Failures {
			sb.WriteString(fmt.Sprintf("  [!] %s: %s\n", f.URL, f.Reason))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
