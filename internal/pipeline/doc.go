// Package pipeline runs one audit batch: fetch, compare, collect, record.
//
// The Aggregator asks a Fetcher for the current scores of every URL in the
// configured order, compares each successful fetch against the same URL in
// the most recent stored run, and collects the outcome into a model.Batch.
// URLs whose fetch fails are recorded as failures and left out of the run
// that is appended to the history, so they have no baseline next time.
//
// URLs are processed sequentially. The external API is slow and quota
// limited, and one batch runs once a week.
package pipeline
