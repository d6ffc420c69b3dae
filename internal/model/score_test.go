package model

import (
	"encoding/json"
	"testing"
	"time"
)

// TestNewScoreRecord tests construction semantics.
func TestNewScoreRecord(t *testing.T) {
	t.Parallel()

	t.Run("keeps insertion order", func(t *testing.T) {
		t.Parallel()

		r := NewScoreRecord(
			CategoryScore{CategorySEO, 100},
			CategoryScore{CategoryPerformance, 80},
		)
		cats := r.Categories()
		if len(cats) != 2 || cats[0] != CategorySEO || cats[1] != CategoryPerformance {
			t.Errorf("unexpected order: %v", cats)
		}
	})

	t.Run("duplicate keeps first position and last value", func(t *testing.T) {
		t.Parallel()

		r := NewScoreRecord(
			CategoryScore{CategoryPerformance, 10},
			CategoryScore{CategorySEO, 20},
			CategoryScore{CategoryPerformance, 30},
		)
		if r.Len() != 2 {
			t.Fatalf("expected 2 entries, got %d", r.Len())
		}
		if r.Categories()[0] != CategoryPerformance {
			t.Error("expected performance to stay first")
		}
		if got, _ := r.Score(CategoryPerformance); got != 30 {
			t.Errorf("expected 30, got %d", got)
		}
	})

	t.Run("input slice is copied", func(t *testing.T) {
		t.Parallel()

		entries := []CategoryScore{{CategoryPerformance, 50}}
		r := NewScoreRecord(entries...)
		entries[0].Score = 99

		if got, _ := r.Score(CategoryPerformance); got != 50 {
			t.Errorf("record was mutated through input slice: %d", got)
		}

		out := r.Entries()
		out[0].Score = 1
		if got, _ := r.Score(CategoryPerformance); got != 50 {
			t.Errorf("record was mutated through Entries: %d", got)
		}
	})

	t.Run("absent category", func(t *testing.T) {
		t.Parallel()

		var r ScoreRecord
		if _, ok := r.Score(CategoryPerformance); ok {
			t.Error("expected absent category")
		}
		if !r.IsEmpty() {
			t.Error("zero record should be empty")
		}
	})
}

// TestScoreRecordJSON tests ordered JSON encoding and decoding.
func TestScoreRecordJSON(t *testing.T) {
	t.Parallel()

	t.Run("marshal keeps order", func(t *testing.T) {
		t.Parallel()

		r := NewScoreRecord(
			CategoryScore{CategorySEO, 92},
			CategoryScore{CategoryBestPractices, 75},
		)
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"seo":92,"best-practices":75}` {
			t.Errorf("got %s", data)
		}
	})

	t.Run("unmarshal keeps order and skips unknown keys", func(t *testing.T) {
		t.Parallel()

		var r ScoreRecord
		err := json.Unmarshal([]byte(`{"seo": 90, "pwa": 30, "performance": 70}`), &r)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		expected := NewScoreRecord(
			CategoryScore{CategorySEO, 90},
			CategoryScore{CategoryPerformance, 70},
		)
		if !r.Equal(expected) {
			t.Errorf("got %v, expected %v", r.Entries(), expected.Entries())
		}
	})

	t.Run("unmarshal rejects non integer values", func(t *testing.T) {
		t.Parallel()

		var r ScoreRecord
		if err := json.Unmarshal([]byte(`{"seo": 90.5}`), &r); err == nil {
			t.Error("expected error for fractional score")
		}
		if err := json.Unmarshal([]byte(`[1, 2]`), &r); err == nil {
			t.Error("expected error for array")
		}
	})

	t.Run("null decodes to empty record", func(t *testing.T) {
		t.Parallel()

		r := NewScoreRecord(CategoryScore{CategorySEO, 1})
		if err := json.Unmarshal([]byte(`null`), &r); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !r.IsEmpty() {
			t.Error("expected empty record")
		}
	})
}

// TestTierOf tests tier boundaries.
func TestTierOf(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		score    int
		expected Tier
	}{
		{100, TierGood},
		{90, TierGood},
		{89, TierOK},
		{50, TierOK},
		{49, TierPoor},
		{0, TierPoor},
	}

	for _, tc := range testCases {
		if got := TierOf(tc.score); got != tc.expected {
			t.Errorf("TierOf(%d) = %q, expected %q", tc.score, got, tc.expected)
		}
	}
}

// TestRunJSON tests the persisted run shape.
func TestRunJSON(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		run := Run{
			Date: time.Date(2025, 3, 10, 9, 0, 0, 123, time.UTC),
			Results: []URLScores{
				{URL: "https://example.com", Scores: NewScoreRecord(CategoryScore{CategoryPerformance, 85})},
			},
		}

		data, err := json.Marshal(run)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded Run
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !decoded.Date.Equal(run.Date) {
			t.Errorf("date mismatch: %v vs %v", decoded.Date, run.Date)
		}
		scores, ok := decoded.Scores("https://example.com")
		if !ok || !scores.Equal(run.Results[0].Scores) {
			t.Errorf("scores mismatch: %v", scores.Entries())
		}
	})

	t.Run("empty results encode as array", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(Run{Date: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != `{"date":"2025-01-01T00:00:00Z","results":[]}` {
			t.Errorf("got %s", data)
		}
	})

	t.Run("naive iso date without offset", func(t *testing.T) {
		t.Parallel()

		var run Run
		err := json.Unmarshal([]byte(`{"date": "2024-11-04T08:30:00.123456", "results": []}`), &run)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if run.Date.Year() != 2024 || run.Date.Month() != time.November || run.Date.Hour() != 8 {
			t.Errorf("unexpected date: %v", run.Date)
		}
	})

	t.Run("invalid date", func(t *testing.T) {
		t.Parallel()

		var run Run
		if err := json.Unmarshal([]byte(`{"date": "last week", "results": []}`), &run); err == nil {
			t.Error("expected error for invalid date")
		}
	})
}

// TestBatchHelpers tests Batch accessors.
func TestBatchHelpers(t *testing.T) {
	t.Parallel()

	date := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)
	b := &Batch{
		Date: date,
		Results: []Result{
			{URL: "https://a.example", Current: NewScoreRecord(CategoryScore{CategorySEO, 90})},
			{URL: "https://b.example", Current: NewScoreRecord(CategoryScore{CategorySEO, 80})},
		},
		Failures: []FetchFailure{{URL: "https://c.example", Reason: "timeout"}},
	}

	if b.Processed() != 2 {
		t.Errorf("expected 2 processed, got %d", b.Processed())
	}
	if failed := b.FailedURLs(); len(failed) != 1 || failed[0] != "https://c.example" {
		t.Errorf("unexpected failed URLs: %v", failed)
	}

	run := b.Run()
	if !run.Date.Equal(date) {
		t.Errorf("unexpected run date: %v", run.Date)
	}
	if urls := run.URLs(); len(urls) != 2 || urls[0] != "https://a.example" {
		t.Errorf("unexpected run URLs: %v", urls)
	}
	if _, ok := run.Scores("https://c.example"); ok {
		t.Error("failed URL must not be part of the run")
	}
}
