// Package model defines the data structures shared by lighthouse-monitor.
//
// This package contains the following main types:
//   - Category: the closed set of Lighthouse audit categories
//   - ScoreRecord: the immutable per-URL category scores of one audit
//   - Run: one audit pass as stored in history
//   - Change: a significant score move between two runs
//   - Batch: the aggregated result of a run, consumed by reports and notifications
//
// The models are serializable to JSON. Run and ScoreRecord define the on-disk
// shape of the history file.
package model
