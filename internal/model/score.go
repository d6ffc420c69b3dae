package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// CategoryScore is a single category score inside a ScoreRecord.
type CategoryScore struct {
	// Category is the audited Lighthouse category.
	Category Category

	// Score is the category score in the range 0-100.
	// Values outside that range are kept as reported by the API.
	Score int
}

// ScoreRecord holds the category scores of one URL at one point in time.
// It is immutable: constructors copy their input and accessors return copies.
// Entries keep insertion order, which is the order categories were
// requested in, and that order is preserved through JSON round trips.
type ScoreRecord struct {
	entries []CategoryScore
}

// NewScoreRecord creates a ScoreRecord from the given entries.
// If a category appears more than once, the first position is kept and the
// last value wins.
func NewScoreRecord(entries ...CategoryScore) ScoreRecord {
	if len(entries) == 0 {
		return ScoreRecord{}
	}

	result := make([]CategoryScore, 0, len(entries))
	index := make(map[Category]int, len(entries))
	for _, e := range entries {
		if i, ok := index[e.Category]; ok {
			result[i].Score = e.Score
			continue
		}
		index[e.Category] = len(result)
		result = append(result, e)
	}
	return ScoreRecord{entries: result}
}

// Score returns the score for a category and whether the record contains it.
func (r ScoreRecord) Score(c Category) (int, bool) {
	for _, e := range r.entries {
		if e.Category == c {
			return e.Score, true
		}
	}
	return 0, false
}

// Entries returns a copy of the scores in insertion order.
func (r ScoreRecord) Entries() []CategoryScore {
	out := make([]CategoryScore, len(r.entries))
	copy(out, r.entries)
	return out
}

// Categories returns the categories present in the record, in order.
func (r ScoreRecord) Categories() []Category {
	out := make([]Category, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.Category
	}
	return out
}

// Len returns the number of categories in the record.
func (r ScoreRecord) Len() int {
	return len(r.entries)
}

// IsEmpty reports whether the record holds no scores.
func (r ScoreRecord) IsEmpty() bool {
	return len(r.entries) == 0
}

// Equal reports whether both records hold the same scores in the same order.
func (r ScoreRecord) Equal(other ScoreRecord) bool {
	if len(r.entries) != len(other.entries) {
		return false
	}
	for i := range r.entries {
		if r.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the record as a JSON object keyed by category,
// e.g. {"performance": 85, "seo": 100}, keeping entry order.
func (r ScoreRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := e.Category.MarshalText()
		if err != nil {
			return nil, err
		}
		buf.WriteString(strconv.Quote(string(key)))
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(e.Score))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keyed by category, keeping key order.
// Keys that are not known categories are skipped so that history files
// written with extra categories still load.
func (r *ScoreRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("score record: %w", err)
	}
	if tok == nil {
		*r = ScoreRecord{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return errors.New("score record: expected JSON object")
	}

	var entries []CategoryScore
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("score record: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return errors.New("score record: expected string key")
		}

		var num json.Number
		if err := dec.Decode(&num); err != nil {
			return fmt.Errorf("score record: value for %q: %w", key, err)
		}
		score, err := num.Int64()
		if err != nil {
			return fmt.Errorf("score record: value for %q is not an integer: %w", key, err)
		}

		c, err := ParseCategory(key)
		if err != nil {
			continue
		}
		entries = append(entries, CategoryScore{Category: c, Score: int(score)})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("score record: %w", err)
	}

	*r = NewScoreRecord(entries...)
	return nil
}

// Tier is a qualitative bucket for a score, used for presentation only.
type Tier string

const (
	// TierGood is assigned to scores of 90 and above.
	TierGood Tier = "good"
	// TierOK is assigned to scores from 50 to 89.
	TierOK Tier = "ok"
	// TierPoor is assigned to scores below 50.
	TierPoor Tier = "poor"
)

// TierOf classifies a score. Lower bounds are inclusive.
func TierOf(score int) Tier {
	switch {
	case score >= 90:
		return TierGood
	case score >= 50:
		return TierOK
	default:
		return TierPoor
	}
}
