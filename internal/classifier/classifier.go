package classifier

import (
	"errors"
	"fmt"
	"math"

	"github.com/CodeBotMzee/FYP/internal/catalog"
)

// ErrInference is returned on any backend-level fault during
// classification. It is never retried within a request.
var ErrInference = errors.New("inference failed")

// Label is the binary authenticity class.
type Label string

const (
	LabelReal Label = "real"
	LabelFake Label = "fake"
)

// Input is a preprocessed frame ready for a backend: NCHW float32 data.
type Input struct {
	Data  []float32
	Shape []int64
}

// Result is the per-frame verdict from one backend call.
type Result struct {
	Label       Label
	Probability float64 // probability of the winning label, in [0,1]
}

// Backend is one loaded classifier. Implementations must be safe for
// concurrent Classify calls; they are shared read-only after load.
type Backend interface {
	Classify(input Input) (Result, error)
	Close() error
}

// New creates the backend variant for the descriptor's model family.
func New(desc catalog.Descriptor, modelPath string) (Backend, error) {
	switch desc.Family {
	case catalog.FamilyViT:
		return NewViT(modelPath, desc)
	case catalog.FamilySigLIP:
		return NewSigLIP(modelPath, desc)
	default:
		return nil, fmt.Errorf("unsupported model family: %q", desc.Family)
	}
}

// checkInput validates that the input matches the descriptor's
// expected tensor shape before it reaches the runtime.
func checkInput(input Input, desc catalog.Descriptor) error {
	want := int64(3) * int64(desc.InputSize) * int64(desc.InputSize)
	if int64(len(input.Data)) != want {
		return fmt.Errorf("%w: input has %d values, want %d", ErrInference, len(input.Data), want)
	}
	if len(input.Shape) != 4 {
		return fmt.Errorf("%w: input shape rank %d, want 4", ErrInference, len(input.Shape))
	}
	return nil
}

// decide converts two raw logits into the winning label and its
// softmax probability, using the descriptor's label table.
func decide(logits [2]float32, desc catalog.Descriptor) Result {
	p0, p1 := softmax2(logits[0], logits[1])

	idx := 0
	prob := p0
	if p1 > p0 {
		idx = 1
		prob = p1
	}

	label := LabelReal
	if desc.IsFakeLabel(desc.Labels[idx]) {
		label = LabelFake
	}

	return Result{Label: label, Probability: prob}
}

func softmax2(a, b float32) (float64, float64) {
	// Subtract the max for numerical stability.
	m := math.Max(float64(a), float64(b))
	ea := math.Exp(float64(a) - m)
	eb := math.Exp(float64(b) - m)
	sum := ea + eb
	return ea / sum, eb / sum
}
