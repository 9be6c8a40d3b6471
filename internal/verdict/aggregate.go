package verdict

import (
	"fmt"

	"github.com/CodeBotMzee/FYP/internal/classifier"
)

// Aggregate reduces the ordered per-frame results of one video into a
// single verdict. Confidence is the average probability, scaled to
// [0,100], of only the frames that agree with the winning label.
// Deterministic given the same ordered input.
func Aggregate(results []classifier.Result) (Aggregated, error) {
	if len(results) == 0 {
		return Aggregated{}, fmt.Errorf("nothing to aggregate")
	}

	label, avg := vote(results)

	fakeCount := 0
	for _, r := range results {
		if r.Label == classifier.LabelFake {
			fakeCount++
		}
	}

	return Aggregated{
		Label:      label,
		Confidence: avg * 100,
		Frames:     len(results),
		FakeFrames: fakeCount,
		RealFrames: len(results) - fakeCount,
	}, nil
}
