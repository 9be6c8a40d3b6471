package verdict

import (
	"github.com/CodeBotMzee/FYP/internal/classifier"
)

// DefaultWindowSize is the stabilization window capacity when a
// session does not configure one.
const DefaultWindowSize = 5

// Window is the fixed-capacity rolling buffer of recent per-frame
// results for one camera session. It smooths the displayed verdict so
// a single noisy frame cannot flicker it. Not safe for concurrent use;
// the owning session serializes pushes in receipt order.
type Window struct {
	capacity int
	results  []classifier.Result
}

// NewWindow creates a window holding the capacity most recent results.
// Capacities below 1 fall back to DefaultWindowSize.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = DefaultWindowSize
	}
	return &Window{
		capacity: capacity,
		results:  make([]classifier.Result, 0, capacity),
	}
}

// Push appends a result, evicting the oldest entry when full, and
// returns the vote over the current window. A window with fewer than
// capacity results votes over whatever is present (minimum 1).
func (w *Window) Push(r classifier.Result) Stabilized {
	if len(w.results) == w.capacity {
		copy(w.results, w.results[1:])
		w.results = w.results[:len(w.results)-1]
	}
	w.results = append(w.results, r)

	label, avg := vote(w.results)
	return Stabilized{
		Label:      label,
		Confidence: avg * 100,
		Window:     len(w.results),
	}
}

// Len returns how many results the window currently holds.
func (w *Window) Len() int {
	return len(w.results)
}
