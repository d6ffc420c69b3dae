// Package history keeps the bounded, append-only log of audit runs.
//
// A History holds at most MaxRuns runs, oldest first, and evicts the oldest
// runs when an append would exceed the bound. A Store loads the history
// from a Backend at the start of an invocation, serves the latest run for
// comparison, and persists the full history on every append.
//
// Two backends exist: FileBackend in this package (the default JSON file)
// and database.HistoryDB (SQLite).
package history
