package compare

import "github.com/nao1215/lighthouse-monitor/internal/model"

// Detect compares current scores against previous scores and returns the
// changes whose magnitude reaches threshold.
//
// Only categories present in current are considered, in current's order.
// A category missing from previous has no baseline and never produces a
// change, so a URL's first audit never alerts. The threshold is inclusive:
// |diff| >= threshold is a change. A diff of zero is never a change, even
// with a threshold of zero.
//
// Detect is pure; it has no side effects and its result depends only on
// its arguments.
func Detect(current, previous model.ScoreRecord, threshold int) []model.Change {
	changes := make([]model.Change, 0)

	for _, entry := range current.Entries() {
		prev, ok := previous.Score(entry.Category)
		if !ok {
			continue
		}

		diff := entry.Score - prev
		if diff == 0 || abs(diff) < threshold {
			continue
		}

		changes = append(changes, model.Change{
			Category:  entry.Category,
			Previous:  prev,
			Current:   entry.Score,
			Diff:      diff,
			Direction: directionOf(diff),
		})
	}

	return changes
}

// directionOf labels a non-zero diff.
func directionOf(diff int) model.Direction {
	if diff > 0 {
		return model.DirectionImproved
	}
	return model.DirectionDeclined
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
