// Package database provides SQLite-based history storage for lighthouse-monitor.
//
// HistoryDB is an alternative to the default JSON history file, selected
// with `history.backend: sqlite`. It keeps the same bounded run sequence in
// two tables (runs and run_results) and rewrites them transactionally on
// every save.
//
// We use SQLite via modernc.org/sqlite, a CGO-free implementation, so the
// binary still cross-compiles without a C toolchain.
package database
