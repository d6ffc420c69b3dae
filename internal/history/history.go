package history

import "github.com/nao1215/lighthouse-monitor/internal/model"

// MaxRuns is the retention window: the number of runs kept in history.
// With weekly runs this is one year of data.
const MaxRuns = 52

// History is an ordered, size-bounded sequence of runs, oldest first.
// Its length never exceeds MaxRuns; appending beyond that evicts the
// oldest runs first.
type History struct {
	runs []model.Run
}

// New creates a History holding the newest MaxRuns of the given runs.
func New(runs ...model.Run) *History {
	h := &History{}
	for _, run := range runs {
		h.Append(run)
	}
	return h
}

// Append adds run at the end and evicts from the front until the length
// is within MaxRuns.
func (h *History) Append(run model.Run) {
	h.runs = append(h.runs, run)
	if excess := len(h.runs) - MaxRuns; excess > 0 {
		kept := make([]model.Run, MaxRuns)
		copy(kept, h.runs[excess:])
		h.runs = kept
	}
}

// Latest returns the most recently appended run.
// The boolean is false when the history is empty.
func (h *History) Latest() (model.Run, bool) {
	if len(h.runs) == 0 {
		return model.Run{}, false
	}
	return h.runs[len(h.runs)-1], true
}

// Runs returns a copy of the runs, oldest first.
func (h *History) Runs() []model.Run {
	out := make([]model.Run, len(h.runs))
	copy(out, h.runs)
	return out
}

// Len returns the number of runs in the history.
func (h *History) Len() int {
	return len(h.runs)
}
