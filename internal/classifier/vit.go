package classifier

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/CodeBotMzee/FYP/internal/catalog"
	"github.com/CodeBotMzee/FYP/internal/inference"
)

// ViT runs a Vision-Transformer-family deepfake classifier
// (dima806, deep-fake-v2).
type ViT struct {
	session *inference.Session
	desc    catalog.Descriptor
}

// NewViT creates a ViT classifier from an exported ONNX model.
func NewViT(modelPath string, desc catalog.Descriptor) (*ViT, error) {
	inputNames := []string{"pixel_values"}
	outputNames := []string{"logits"}

	session, err := inference.NewSession(modelPath, inputNames, outputNames)
	if err != nil {
		return nil, fmt.Errorf("failed to create ViT session: %w", err)
	}

	return &ViT{
		session: session,
		desc:    desc,
	}, nil
}

// Classify scores one prepared frame and returns the winning label
// with its softmax probability.
func (v *ViT) Classify(input Input) (Result, error) {
	if err := checkInput(input, v.desc); err != nil {
		return Result{}, err
	}

	inputTensor, err := inference.CreateTensor(input.Shape, input.Data)
	if err != nil {
		return Result{}, fmt.Errorf("%w: input tensor: %v", ErrInference, err)
	}
	defer inputTensor.Destroy()

	// Logits output is (1, 2): one score per class.
	outputTensor, err := inference.CreateEmptyTensor[float32]([]int64{1, 2})
	if err != nil {
		return Result{}, fmt.Errorf("%w: output tensor: %v", ErrInference, err)
	}
	defer outputTensor.Destroy()

	if err := v.session.Run([]ort.Value{inputTensor}, []ort.Value{outputTensor}); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	logits := outputTensor.GetData()
	if len(logits) != 2 {
		return Result{}, fmt.Errorf("%w: got %d logits, want 2", ErrInference, len(logits))
	}

	return decide([2]float32{logits[0], logits[1]}, v.desc), nil
}

// Close releases the underlying session.
func (v *ViT) Close() error {
	return v.session.Destroy()
}
