package classifier

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/CodeBotMzee/FYP/internal/catalog"
	"github.com/CodeBotMzee/FYP/internal/inference"
)

// SigLIP runs a SigLIP-family deepfake classifier (open-deepfake).
// The exported graph uses the same pixel_values/logits node names as
// the ViT exports but carries its own vision tower, so it gets its own
// wrapper per model family.
type SigLIP struct {
	session *inference.Session
	desc    catalog.Descriptor
}

// NewSigLIP creates a SigLIP classifier from an exported ONNX model.
func NewSigLIP(modelPath string, desc catalog.Descriptor) (*SigLIP, error) {
	inputNames := []string{"pixel_values"}
	outputNames := []string{"logits"}

	session, err := inference.NewSession(modelPath, inputNames, outputNames)
	if err != nil {
		return nil, fmt.Errorf("failed to create SigLIP session: %w", err)
	}

	return &SigLIP{
		session: session,
		desc:    desc,
	}, nil
}

// Classify scores one prepared frame. SigLIP heads are trained with a
// sigmoid objective but the two-class export still emits paired
// logits, so the same softmax decision applies.
func (s *SigLIP) Classify(input Input) (Result, error) {
	if err := checkInput(input, s.desc); err != nil {
		return Result{}, err
	}

	inputTensor, err := inference.CreateTensor(input.Shape, input.Data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: input tensor: %v", ErrInference, err)
	}
	defer inputTensor.Destroy()

	outputTensor, err := inference.CreateEmptyTensor[float32]([]int64{1, 2})
	if err != nil {
		return Result{}, fmt.Errorf("%w: output tensor: %v", ErrInference, err)
	}
	defer outputTensor.Destroy()

	if err := s.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	logits := outputTensor.GetData()
	if len(logits) != 2 {
		return Result{}, fmt.Errorf("%w: got %d logits, want 2", ErrInference, len(logits))
	}

	return decide([2]float32{logits[0], logits[1]}, s.desc), nil
}

// Close releases the underlying session.
func (s *SigLIP) Close() error {
	return s.session.Destroy()
}
