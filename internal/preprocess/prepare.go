package preprocess

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/CodeBotMzee/FYP/internal/catalog"
	"github.com/CodeBotMzee/FYP/internal/classifier"
)

// Prepare converts a decoded frame into the NCHW float32 input the
// descriptor's backend expects: resize to the model's input size,
// BGR to RGB, scale to [0,1], then per-channel mean/std normalize.
func Prepare(img gocv.Mat, desc catalog.Descriptor) (classifier.Input, error) {
	if img.Empty() {
		return classifier.Input{}, fmt.Errorf("cannot prepare an empty frame")
	}
	size := desc.InputSize

	resized := gocv.NewMat()
	gocv.Resize(img, &resized, image.Pt(size, size), 0, 0, gocv.InterpolationLinear)
	defer resized.Close()

	rgb := gocv.NewMat()
	gocv.CvtColor(resized, &rgb, gocv.ColorBGRToRGB)
	defer rgb.Close()

	floatMat := gocv.NewMat()
	rgb.ConvertTo(&floatMat, gocv.MatTypeCV32FC3)
	defer floatMat.Close()

	floatMat.DivideFloat(255.0)

	// HWC to CHW (blob format)
	blob := gocv.BlobFromImage(floatMat, 1.0, image.Pt(size, size),
		gocv.NewScalar(0, 0, 0, 0), false, false)
	defer blob.Close()

	data := bytesToFloat32(blob.ToBytes())

	plane := size * size
	if len(data) != 3*plane {
		return classifier.Input{}, fmt.Errorf("blob has %d values, want %d", len(data), 3*plane)
	}
	for c := 0; c < 3; c++ {
		mean, std := desc.Mean[c], desc.Std[c]
		for i := c * plane; i < (c+1)*plane; i++ {
			data[i] = (data[i] - mean) / std
		}
	}

	return classifier.Input{
		Data:  data,
		Shape: []int64{1, 3, int64(size), int64(size)},
	}, nil
}

func bytesToFloat32(b []byte) []float32 {
	floats := make([]float32, len(b)/4)
	for i := 0; i < len(floats); i++ {
		bits := uint32(b[i*4]) | uint32(b[i*4+1])<<8 | uint32(b[i*4+2])<<16 | uint32(b[i*4+3])<<24
		floats[i] = math.Float32frombits(bits)
	}
	return floats
}
