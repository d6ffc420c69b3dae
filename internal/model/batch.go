package model

import "time"

// Direction describes which way a score moved.
type Direction string

const (
	// DirectionImproved means the score went up.
	DirectionImproved Direction = "improved"

	// DirectionDeclined means the score went down.
	DirectionDeclined Direction = "declined"
)

// Change is a category whose score moved by at least the alert threshold
// between the previous run and the current one. Changes are derived on
// every run and never persisted.
type Change struct {
	Category  Category  `json:"category"`
	Previous  int       `json:"previous"`
	Current   int       `json:"current"`
	Diff      int       `json:"diff"`
	Direction Direction `json:"direction"`
}

// Result is the outcome of auditing one URL in a batch.
type Result struct {
	// URL is the audited page.
	URL string `json:"url"`

	// Current holds the freshly fetched scores.
	Current ScoreRecord `json:"scores"`

	// Previous holds the scores of the most recent stored run.
	// It is empty when the URL has no baseline.
	Previous ScoreRecord `json:"previous"`

	// Changes lists the significant score moves, in category order.
	Changes []Change `json:"changes"`
}

// HasChanges reports whether this URL produced any significant change.
func (r Result) HasChanges() bool {
	return len(r.Changes) > 0
}

// FetchFailure records a URL whose scores could not be fetched.
type FetchFailure struct {
	URL    string `json:"url"`
	Reason string `json:"reason"`
}

// Batch is the aggregated outcome of one run over all configured URLs.
type Batch struct {
	// Date is when the run started. It is also the date stored in history.
	Date time.Time `json:"date"`

	// Results holds one entry per successfully audited URL, in audit order.
	Results []Result `json:"results"`

	// Failures lists URLs that could not be audited, in audit order.
	Failures []FetchFailure `json:"failures,omitempty"`

	// HasChanges is true iff at least one Result has changes.
	// It is computed once while aggregating; presentation code reads it
	// instead of recomputing.
	HasChanges bool `json:"has_changes"`
}

// Processed returns the number of URLs audited successfully.
func (b *Batch) Processed() int {
	return len(b.Results)
}

// FailedURLs returns the URLs that could not be audited.
func (b *Batch) FailedURLs() []string {
	urls := make([]string, len(b.Failures))
	for i, f := range b.Failures {
		urls[i] = f.URL
	}
	return urls
}

// Run converts the batch into the Run stored in history.
// Only successfully audited URLs are included.
func (b *Batch) Run() Run {
	results := make([]URLScores, len(b.Results))
	for i, r := range b.Results {
		results[i] = URLScores{URL: r.URL, Scores: r.Current}
	}
	return Run{Date: b.Date, Results: results}
}
