package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// MarkdownWriter outputs reports in GitHub flavored Markdown.
// This format is designed for pasting into issues and wikis.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the batch in Markdown format.
func (w *MarkdownWriter) Write(batch *model.Batch) (int, error) {
	v := newView(batch)
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, v)
	w.writeSections(md, v)
	w.writeFailures(md, v)

	return len(md.String()), md.Build()
}

// writeHeader writes the title, the run information table and the banner.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, v view) {
	md.H1("Lighthouse Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run Date", v.Date},
			{"URLs Audited", strconv.Itoa(v.Processed)},
			{"Failed Audits", strconv.Itoa(len(v.Failures))},
		},
	})
	md.PlainText("")

	if v.HasChanges {
		md.Warningf("%s.", v.Banner)
	} else {
		md.Tip(v.Banner + ".")
	}
	md.PlainText("")
}

// writeSections writes one section per audited URL.
func (w *MarkdownWriter) writeSections(md *markdown.Markdown, v view) {
	if len(v.Sections) == 0 {
		md.PlainText(noResults)
		md.PlainText("")
		return
	}

	for _, s := range v.Sections {
		md.H2(s.URL)
		md.PlainText("")

		if s.HasChanges {
			md.Importantf("%s.", urlAlert)
			md.PlainText("")
		}

		rows := make([][]string, len(s.Rows))
		for i, r := range s.Rows {
			rows[i] = []string{
				r.Label,
				strconv.Itoa(r.Score),
				tierIcon(r.Tier) + " " + string(r.Tier),
				r.Previous,
				r.Indicator,
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Category", "Current", "Tier", "Previous", "Change"},
			Rows:   rows,
		})
		md.PlainText("")
	}
}

// writeFailures lists the URLs that could not be audited.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, v view) {
	if len(v.Failures) == 0 {
		return
	}

	md.H2("Failed audits")
	md.PlainText("")

	items := make([]string, len(v.Failures))
	for i, f := range v.Failures {
		items[i] = "`" + f.URL + "`: " + f.Reason
	}
	md.BulletList(items...)
	md.PlainText("")
}

// tierIcon returns a colored marker for a tier.
func tierIcon(t model.Tier) string {
	switch t {
	case model.TierGood:
		return "🟢"
	case model.TierOK:
		return "🟠"
	default:
		return "🔴"
	}
}
