package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownModel is returned when a model key is not in the table.
var ErrUnknownModel = errors.New("unknown model")

// Family identifies the classifier architecture a descriptor runs on.
type Family string

const (
	FamilyViT    Family = "vit"
	FamilySigLIP Family = "siglip"
)

// DefaultKey is the model used when callers have no preference.
const DefaultKey = "dima806"

// Descriptor holds the static metadata for one supported backend.
// Descriptors are defined at process start and never change.
type Descriptor struct {
	Key         string
	Name        string
	Description string
	ModelFile   string
	Family      Family
	InputSize   int
	Mean        [3]float32
	Std         [3]float32
	Labels      [2]string // class index -> label emitted by the model
	FaceCrop    bool      // run the face localization/enhancement stage
}

// Summary is the subset of a descriptor exposed to selection UIs.
type Summary struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var descriptors = []Descriptor{
	{
		Key:         "dima806",
		Name:        "Dima806 Deepfake Detector",
		Description: "General purpose deepfake detection",
		ModelFile:   "dima806_deepfake_vs_real.onnx",
		Family:      FamilyViT,
		InputSize:   224,
		Mean:        [3]float32{0.5, 0.5, 0.5},
		Std:         [3]float32{0.5, 0.5, 0.5},
		Labels:      [2]string{"Fake", "Real"},
		FaceCrop:    true,
	},
	{
		Key:         "deep-fake-v2",
		Name:        "Deep Fake Detector v2 (ViT)",
		Description: "Vision Transformer based detector",
		ModelFile:   "deep_fake_detector_v2.onnx",
		Family:      FamilyViT,
		InputSize:   224,
		Mean:        [3]float32{0.5, 0.5, 0.5},
		Std:         [3]float32{0.5, 0.5, 0.5},
		Labels:      [2]string{"Deepfake", "Realism"},
		FaceCrop:    true,
	},
	{
		Key:         "open-deepfake",
		Name:        "Open Deepfake Detection (SigLIP)",
		Description: "SigLIP based deepfake detector",
		ModelFile:   "open_deepfake_detection.onnx",
		Family:      FamilySigLIP,
		InputSize:   224,
		Mean:        [3]float32{0.5, 0.5, 0.5},
		Std:         [3]float32{0.5, 0.5, 0.5},
		Labels:      [2]string{"Fake", "Real"},
		FaceCrop:    true,
	},
}

// List returns all descriptors in stable order.
func List() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Get returns the descriptor for key.
func Get(key string) (Descriptor, error) {
	for _, d := range descriptors {
		if d.Key == key {
			return d, nil
		}
	}
	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownModel, key)
}

// Summaries returns the selection-UI view of the table, in List order.
func Summaries() []Summary {
	out := make([]Summary, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, Summary{Key: d.Key, Name: d.Name, Description: d.Description})
	}
	return out
}

// fakeLabels are the label spellings that count as a fake verdict,
// compared case-insensitively.
var fakeLabels = map[string]bool{
	"fake":      true,
	"deepfake":  true,
	"synthetic": true,
}

// IsFakeLabel reports whether a model-emitted label means "fake".
func (d Descriptor) IsFakeLabel(label string) bool {
	return fakeLabels[strings.ToLower(label)]
}
