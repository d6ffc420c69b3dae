package notify

import (
	"github.com/nao1215/lighthouse-monitor/internal/model"
	"github.com/nao1215/lighthouse-monitor/internal/report"
)

// Subject lines.
const (
	SubjectChanges   = "🚨 Lighthouse Alert: Score Changes Detected"
	SubjectNoChanges = "✅ Lighthouse Report: No Significant Changes"
)

// Message is one notification email.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

// Subject returns the subject line for a batch with or without changes.
func Subject(hasChanges bool) string {
	if hasChanges {
		return SubjectChanges
	}
	return SubjectNoChanges
}

// NewMessage renders batch into a Message.
func NewMessage(batch *model.Batch) (Message, error) {
	rendered, err := report.Render(batch)
	if err != nil {
		return Message{}, err
	}

	return Message{
		Subject: Subject(batch.HasChanges),
		HTML:    rendered.HTML,
		Text:    rendered.Text,
	}, nil
}
