package preprocess

import (
	"image"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/CodeBotMzee/FYP/internal/lgr"
)

const (
	cascadeScale     = 1.3
	cascadeNeighbors = 5
	cropPadding      = 0.3 // fraction of face width added on each side
	claheClipLimit   = 2.0
	claheTileSize    = 8
)

// FaceEnhancer localizes the dominant face in a frame and returns a
// contrast-equalized crop of it. Absence of a detectable face is not
// an error, only a quality degradation: every path falls back to the
// full frame.
type FaceEnhancer struct {
	mu      sync.Mutex
	cascade gocv.CascadeClassifier
	loaded  bool
}

// NewFaceEnhancer loads the Haar cascade at path. A missing or broken
// cascade disables the face stage instead of failing: Enhance then
// passes frames through untouched.
func NewFaceEnhancer(cascadePath string) *FaceEnhancer {
	e := &FaceEnhancer{cascade: gocv.NewCascadeClassifier()}
	if cascadePath == "" || !e.cascade.Load(cascadePath) {
		lgr.Logger.Warn("face cascade not available, face stage disabled",
			slog.String("path", cascadePath),
		)
		return e
	}
	e.loaded = true
	return e
}

// Enhance returns a new Mat the caller owns: the padded, CLAHE-equalized
// crop of the largest detected face, or a plain copy of the input when
// no face is found or the stage is disabled.
func (e *FaceEnhancer) Enhance(img gocv.Mat) gocv.Mat {
	if !e.loaded || img.Empty() {
		return img.Clone()
	}

	gray := gocv.NewMat()
	gocv.CvtColor(img, &gray, gocv.ColorBGRToGray)
	defer gray.Close()

	// Cascade detection is stateful in OpenCV; serialize it.
	e.mu.Lock()
	rects := e.cascade.DetectMultiScaleWithParams(gray, cascadeScale, cascadeNeighbors,
		0, image.Pt(0, 0), image.Pt(0, 0))
	e.mu.Unlock()

	if len(rects) == 0 {
		return img.Clone()
	}

	face := largestRect(rects)
	pad := int(float64(face.Dx()) * cropPadding)
	crop := image.Rect(
		maxInt(0, face.Min.X-pad),
		maxInt(0, face.Min.Y-pad),
		minInt(img.Cols(), face.Max.X+pad),
		minInt(img.Rows(), face.Max.Y+pad),
	)
	if crop.Empty() {
		return img.Clone()
	}

	region := img.Region(crop)
	cropped := region.Clone()
	region.Close()

	equalized := equalizeContrast(cropped)
	cropped.Close()
	return equalized
}

// equalizeContrast applies CLAHE to the L channel in LAB space,
// lifting local contrast without blowing out color.
func equalizeContrast(img gocv.Mat) gocv.Mat {
	lab := gocv.NewMat()
	gocv.CvtColor(img, &lab, gocv.ColorBGRToLab)
	defer lab.Close()

	channels := gocv.Split(lab)
	defer func() {
		for _, ch := range channels {
			ch.Close()
		}
	}()
	if len(channels) != 3 {
		return img.Clone()
	}

	clahe := gocv.NewCLAHEWithParams(claheClipLimit, image.Pt(claheTileSize, claheTileSize))
	defer clahe.Close()
	clahe.Apply(channels[0], &channels[0])

	merged := gocv.NewMat()
	gocv.Merge(channels, &merged)
	defer merged.Close()

	out := gocv.NewMat()
	gocv.CvtColor(merged, &out, gocv.ColorLabToBGR)
	return out
}

// Close releases the cascade.
func (e *FaceEnhancer) Close() {
	e.cascade.Close()
}

func largestRect(rects []image.Rectangle) image.Rectangle {
	best := rects[0]
	for _, r := range rects[1:] {
		if r.Dx()*r.Dy() > best.Dx()*best.Dy() {
			best = r
		}
	}
	return best
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
