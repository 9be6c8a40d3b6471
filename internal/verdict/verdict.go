// Package verdict reduces per-frame classification results into the
// single verdicts shown to callers: majority-vote aggregation for
// offline video and a rolling stabilization window for live camera
// streams. Both share one tie-break rule.
package verdict

import (
	"github.com/CodeBotMzee/FYP/internal/classifier"
)

// Aggregated is the final verdict for one video job.
type Aggregated struct {
	Label      classifier.Label
	Confidence float64 // [0,100], mean probability of winning-label frames
	Frames     int
	FakeFrames int
	RealFrames int
}

// Stabilized is the smoothed verdict for one live camera frame.
type Stabilized struct {
	Label      classifier.Label
	Confidence float64 // [0,100]
	Window     int     // results currently in the window
}

// vote picks the winning label by majority across results and returns
// it with the mean probability of the frames that agree with it.
//
// Tie-break: equal counts go to the label with the higher per-label
// average probability; equal counts and equal averages resolve to
// fake, the conservative default.
func vote(results []classifier.Result) (classifier.Label, float64) {
	var fakeCount, realCount int
	var fakeSum, realSum float64

	for _, r := range results {
		if r.Label == classifier.LabelFake {
			fakeCount++
			fakeSum += r.Probability
		} else {
			realCount++
			realSum += r.Probability
		}
	}

	var winner classifier.Label
	switch {
	case fakeCount > realCount:
		winner = classifier.LabelFake
	case realCount > fakeCount:
		winner = classifier.LabelReal
	default:
		avgFake, avgReal := 0.0, 0.0
		if fakeCount > 0 {
			avgFake = fakeSum / float64(fakeCount)
		}
		if realCount > 0 {
			avgReal = realSum / float64(realCount)
		}
		if avgReal > avgFake {
			winner = classifier.LabelReal
		} else {
			winner = classifier.LabelFake
		}
	}

	if winner == classifier.LabelFake {
		return winner, fakeSum / float64(fakeCount)
	}
	return winner, realSum / float64(realCount)
}
