package report

import (
	"io"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// Writer defines the interface for report output.
// Implementations write a batch in one format to their destination.
type Writer interface {
	// Write outputs the batch to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(batch *model.Batch) (int, error)
}

// MultiWriter writes to multiple Writers in order.
// It is used to print a report to the terminal and save it to a file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the batch to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(batch *model.Batch) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(batch)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// TextWriter outputs the plain text report.
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the batch as plain text.
func (w *TextWriter) Write(batch *model.Batch) (int, error) {
	return io.WriteString(w.output, renderText(newView(batch)))
}

// HTMLWriter outputs the HTML report.
type HTMLWriter struct {
	baseWriter
}

// NewHTMLWriter creates an HTMLWriter that outputs to the given writer.
func NewHTMLWriter(output io.Writer) *HTMLWriter {
	return &HTMLWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the batch as an HTML document.
func (w *HTMLWriter) Write(batch *model.Batch) (int, error) {
	html, err := renderHTML(newView(batch))
	if err != nil {
		return 0, err
	}
	return io.WriteString(w.output, html)
}
