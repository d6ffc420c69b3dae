package report

import (
	"strconv"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// dateLayout is how run dates are shown in every format.
const dateLayout = "2006-01-02 15:04:05 MST"

// Presentation markers shared by all formats.
const (
	noBaseline  = "N/A"
	firstRun    = "First run"
	noChange    = "—"
	arrowUp     = "↑"
	arrowDown   = "↓"
	bannerAlert = "Score changes detected in this run"
	bannerQuiet = "No significant score changes"
	urlAlert    = "Score changes detected"
	noResults   = "No URL was audited successfully."
)

// trend is the CSS class of a change indicator.
type trend string

const (
	trendImproved trend = "improved"
	trendDeclined trend = "declined"
	trendNone     trend = "no-change"
)

// view is the format independent content of a report.
type view struct {
	Date       string
	HasChanges bool
	Banner     string
	Sections   []section
	Failures   []model.FetchFailure
	Processed  int
}

// section is the report block of one URL.
type section struct {
	URL        string
	HasChanges bool
	Rows       []row
}

// row is one category of one URL.
type row struct {
	Label     string
	Score     int
	Tier      model.Tier
	Previous  string
	Indicator string
	Trend     trend
}

// newView builds the view of batch. The banner comes from batch.HasChanges
// only.
func newView(batch *model.Batch) view {
	v := view{
		Date:       batch.Date.Format(dateLayout),
		HasChanges: batch.HasChanges,
		Banner:     bannerQuiet,
		Sections:   make([]section, 0, len(batch.Results)),
		Failures:   batch.Failures,
		Processed:  batch.Processed(),
	}
	if batch.HasChanges {
		v.Banner = bannerAlert
	}

	for _, result := range batch.Results {
		s := section{
			URL:        result.URL,
			HasChanges: result.HasChanges(),
			Rows:       make([]row, 0, result.Current.Len()),
		}
		for _, entry := range result.Current.Entries() {
			s.Rows = append(s.Rows, newRow(entry, result.Previous))
		}
		v.Sections = append(v.Sections, s)
	}

	return v
}

// newRow builds the row of one category score.
func newRow(entry model.CategoryScore, previous model.ScoreRecord) row {
	r := row{
		Label:     entry.Category.Label(),
		Score:     entry.Score,
		Tier:      model.TierOf(entry.Score),
		Previous:  noBaseline,
		Indicator: firstRun,
		Trend:     trendNone,
	}

	prev, ok := previous.Score(entry.Category)
	if !ok {
		return r
	}

	r.Previous = strconv.Itoa(prev)
	diff := entry.Score - prev
	switch {
	case diff > 0:
		r.Indicator = "+" + strconv.Itoa(diff) + " " + arrowUp
		r.Trend = trendImproved
	case diff < 0:
		r.Indicator = strconv.Itoa(diff) + " " + arrowDown
		r.Trend = trendDeclined
	default:
		r.Indicator = noChange
	}
	return r
}
