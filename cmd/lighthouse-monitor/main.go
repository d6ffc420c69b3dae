// Package main provides the entry point for the lighthouse-monitor CLI.
//
// lighthouse-monitor audits a list of web pages with Google PageSpeed
// Insights, keeps a bounded history of their Lighthouse scores, and reports
// significant score changes by email.
//
// Usage:
//
//	lighthouse-monitor run
//	lighthouse-monitor run --url https://example.com --threshold 3
//	lighthouse-monitor history --url https://example.com
//	lighthouse-monitor watch --interval 168h
//
// See --help for all available options.
package main

// main is the entry point for lighthouse-monitor.
func main() {
	Execute()
}
