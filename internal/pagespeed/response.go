package pagespeed

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/nao1215/lighthouse-monitor/internal/model"
)

// runPagespeedResponse is the subset of the v5 response we read.
type runPagespeedResponse struct {
	LighthouseResult struct {
		Categories map[string]struct {
			// Score is null when Lighthouse could not score the category.
			Score *float64 `json:"score"`
		} `json:"categories"`
	} `json:"lighthouseResult"`
}

// errorEnvelope is the standard Google API error body.
type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// parseScores extracts the requested categories, in request order, from a
// runPagespeed response body.
// Categories are looked up by canonical key first and then without hyphens.
// Null scores are skipped. ErrNoScores is returned when nothing was found.
func parseScores(body []byte, categories []model.Category) (model.ScoreRecord, error) {
	var resp runPagespeedResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.ScoreRecord{}, fmt.Errorf("failed to decode pagespeed response: %w", err)
	}

	found := resp.LighthouseResult.Categories
	entries := make([]model.CategoryScore, 0, len(categories))
	for _, c := range categories {
		key := c.String()
		data, ok := found[key]
		if !ok {
			data, ok = found[strings.ReplaceAll(key, "-", "")]
		}
		if !ok || data.Score == nil {
			continue
		}
		entries = append(entries, model.CategoryScore{Category: c, Score: toScore(*data.Score)})
	}

	if len(entries) == 0 {
		return model.ScoreRecord{}, ErrNoScores
	}
	return model.NewScoreRecord(entries...), nil
}

// toScore converts a 0..1 Lighthouse score into an integer score.
func toScore(v float64) int {
	return int(math.Round(v * 100))
}

// parseAPIError builds an APIError from a non-2xx response body.
func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		apiErr.Message = env.Error.Message
	}
	return apiErr
}
