package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// URLScores pairs an audited URL with its scores inside a Run.
type URLScores struct {
	// URL is the audited page.
	URL string `json:"url"`

	// Scores holds the category scores of the URL.
	Scores ScoreRecord `json:"scores"`
}

// Run is one complete audit pass over the configured URLs.
// Only URLs that were fetched successfully appear in Results.
// A Run is never modified after it has been appended to the history.
type Run struct {
	// Date is when the run started.
	Date time.Time

	// Results holds one entry per successfully audited URL, in audit order.
	Results []URLScores
}

// Scores returns the scores recorded for url in this run.
func (r Run) Scores(url string) (ScoreRecord, bool) {
	for _, res := range r.Results {
		if res.URL == url {
			return res.Scores, true
		}
	}
	return ScoreRecord{}, false
}

// URLs returns the URLs recorded in this run, in audit order.
func (r Run) URLs() []string {
	urls := make([]string, len(r.Results))
	for i, res := range r.Results {
		urls[i] = res.URL
	}
	return urls
}

// runJSON is the persisted shape of a Run.
type runJSON struct {
	Date    string      `json:"date"`
	Results []URLScores `json:"results"`
}

// MarshalJSON encodes the run as {"date": "<RFC 3339>", "results": [...]}.
func (r Run) MarshalJSON() ([]byte, error) {
	results := r.Results
	if results == nil {
		results = []URLScores{}
	}
	return json.Marshal(runJSON{
		Date:    r.Date.Format(time.RFC3339Nano),
		Results: results,
	})
}

// UnmarshalJSON decodes a persisted run.
func (r *Run) UnmarshalJSON(data []byte) error {
	var raw runJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	date, err := ParseRunDate(raw.Date)
	if err != nil {
		return err
	}

	r.Date = date
	r.Results = raw.Results
	return nil
}

// runDateFormats lists the date layouts accepted in history files.
// Zoned layouts come first; the naive ISO-8601 layouts, without offset,
// come from history files of earlier deployments and are read as local time.
var runDateFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseRunDate parses a run date in any of the accepted layouts.
func ParseRunDate(s string) (time.Time, error) {
	for i, layout := range runDateFormats {
		var (
			t   time.Time
			err error
		)
		if i < 2 {
			t, err = time.Parse(layout, s)
		} else {
			t, err = time.ParseInLocation(layout, s, time.Local)
		}
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid run date %q", s)
}
