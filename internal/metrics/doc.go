// Package metrics exports the latest batch in the Prometheus text
// exposition format, for the node_exporter textfile collector.
package metrics
