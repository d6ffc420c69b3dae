package metrics

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// Metric names.
const (
	ScoreMetric         = "lighthouse_score"
	ScoreChangeMetric   = "lighthouse_score_change"
	AuditFailuresMetric = "lighthouse_audit_failures"
	ProcessedMetric     = "lighthouse_urls_processed"
	LastRunMetric       = "lighthouse_last_run_timestamp_seconds"
)

// Families converts batch into metric families, in a fixed order.
func Families(batch *model.Batch) []*dto.MetricFamily {
	score := gaugeFamily(ScoreMetric, "Latest Lighthouse category score (0-100).")
	change := gaugeFamily(ScoreChangeMetric, "Signed score change of categories that moved by at least the alert threshold.")

	for _, result := range batch.Results {
		for _, entry := range result.Current.Entries() {
			score.Metric = append(score.Metric, gauge(float64(entry.Score),
				"url", result.URL, "category", entry.Category.String()))
		}
		for _, c := range result.Changes {
			change.Metric = append(change.Metric, gauge(float64(c.Diff),
				"url", result.URL, "category", c.Category.String()))
		}
	}

	failures := gaugeFamily(AuditFailuresMetric, "Number of URLs whose audit failed in the latest run.")
	failures.Metric = append(failures.Metric, gauge(float64(len(batch.Failures))))

	processed := gaugeFamily(ProcessedMetric, "Number of URLs audited successfully in the latest run.")
	processed.Metric = append(processed.Metric, gauge(float64(batch.Processed())))

	lastRun := gaugeFamily(LastRunMetric, "Unix time of the latest run.")
	lastRun.Metric = append(lastRun.Metric, gauge(float64(batch.Date.Unix())))

	families := []*dto.MetricFamily{score}
	if len(change.Metric) > 0 {
		families = append(families, change)
	}
	return append(families, failures, processed, lastRun)
}

// Write writes batch to w in the text exposition format.
func Write(w io.Writer, batch *model.Batch) error {
	for _, mf := range Families(batch) {
		if len(mf.GetMetric()) == 0 {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to encode %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// WriteTextfile atomically replaces the file at path with the metrics of
// batch. The collector must never read a partially written file.
func WriteTextfile(path string, batch *model.Batch) (err error) {
	var buf bytes.Buffer
	if err := Write(&buf, batch); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary metrics file: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			_ = tmp.Close()         //nolint:errcheck // best effort cleanup
			_ = os.Remove(tmpPath) //nolint:errcheck // best effort cleanup
		}
	}()

	if _, err = tmp.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close metrics file: %w", err)
	}
	// The collector usually runs as another user.
	if err = os.Chmod(tmpPath, 0644); err != nil { //nolint:gosec // world readable metrics
		return fmt.Errorf("failed to set metrics file permissions: %w", err)
	}
	if err = os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to replace metrics file: %w", err)
	}
	return nil
}

func gaugeFamily(name, help string) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: ptr(name),
		Help: ptr(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}
}

// gauge builds a gauge sample; labels are name/value pairs.
func gauge(value float64, labels ...string) *dto.Metric {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: ptr(value)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{
			Name:  ptr(labels[i]),
			Value: ptr(labels[i+1]),
		})
	}
	return m
}

func ptr[T any](v T) *T {
	return &v
}
