package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/lighthouse-monitor/internal/history"
	"github.com/nao1215/lighthouse-monitor/internal/model"
)

func storedRuns() []model.Run {
	day := time.Date(2025, 3, 3, 7, 0, 0, 0, time.UTC)
	scores := func(perf, seo int) model.ScoreRecord {
		return model.NewScoreRecord(
			model.CategoryScore{Category: model.CategoryPerformance, Score: perf},
			model.CategoryScore{Category: model.CategorySEO, Score: seo},
		)
	}
	return []model.Run{
		{Date: day, Results: []model.URLScores{
			{URL: siteURL, Scores: scores(85, 92)},
			{URL: brokenURL, Scores: scores(60, 70)},
		}},
		{Date: day.AddDate(0, 0, 7), Results: []model.URLScores{
			{URL: brokenURL, Scores: scores(61, 70)},
		}},
	}
}

func TestPrintRunList(t *testing.T) {
	t.Parallel()

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		printRunList(&buf, nil)
		if !strings.Contains(buf.String(), "No runs stored yet.") {
			t.Errorf("unexpected output: %q", buf.String())
		}
	})

	t.Run("lists runs with age and url count", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		printRunList(&buf, storedRuns())

		output := buf.String()
		if !strings.Contains(output, "Stored runs (2 of at most 52)") {
			t.Errorf("expected header, got %q", output)
		}
		if !strings.Contains(output, "ago") {
			t.Errorf("expected a relative age, got %q", output)
		}
		lines := strings.Split(strings.TrimSpace(output), "\n")
		var rows []string
		for _, line := range lines {
			fields := strings.Fields(line)
			if len(fields) > 0 && (fields[0] == "1" || fields[0] == "2") {
				rows = append(rows, line)
			}
		}
		if len(rows) != 2 {
			t.Fatalf("expected 2 rows, got %d in %q", len(rows), output)
		}
		if !strings.HasSuffix(rows[0], "2") || !strings.HasSuffix(rows[1], "1") {
			t.Errorf("expected url counts 2 and 1, got %q", rows)
		}
	})
}

func TestPrintURLHistory(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	printURLHistory(&buf, storedRuns(), siteURL)

	output := buf.String()
	if !strings.Contains(output, "Performance 85  SEO 92") {
		t.Errorf("expected scores of the first run, got %q", output)
	}
	if !strings.Contains(output, "(not audited)") {
		t.Errorf("expected the missing second run to be marked, got %q", output)
	}

	buf.Reset()
	printURLHistory(&buf, storedRuns(), "https://unknown.example")
	if !strings.Contains(buf.String(), "No stored scores") {
		t.Errorf("unexpected output: %q", buf.String())
	}
}

func TestWriteHistoryJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := writeHistoryJSON(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), `"runs": []`) {
		t.Errorf("expected empty runs array, got %q", buf.String())
	}

	buf.Reset()
	if err := writeHistoryJSON(&buf, storedRuns()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded struct {
		Runs []model.Run `json:"runs"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid history JSON: %v", err)
	}
	if len(decoded.Runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(decoded.Runs))
	}
}

func TestHistoryCmd(t *testing.T) {
	t.Parallel()

	dataDir := t.TempDir()
	store, err := history.Open(context.Background(),
		history.NewFileBackend(filepath.Join(dataDir, history.DefaultFileName)))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	for _, run := range storedRuns() {
		if err := store.Append(context.Background(), run); err != nil {
			t.Fatalf("failed to append run: %v", err)
		}
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	writeTestConfig(t, configPath, "urls: [https://example.com]\n")

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"history", "--config", configPath, "--data-dir", dataDir, "--url", siteURL})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "Score history for "+siteURL) {
		t.Errorf("unexpected output: %q", out.String())
	}
}
