package media

import (
	"time"

	"gocv.io/x/gocv"
)

// Frame is one decoded raster image plus its source offset: a sample
// index and stream position for video, a wall-clock receipt time for
// camera frames. Frames are consumed by the preprocessor and must be
// closed by whoever drains them.
type Frame struct {
	Mat      gocv.Mat
	Index    int
	Position time.Duration
	Captured time.Time
}

// Close releases the underlying pixel buffer.
func (f *Frame) Close() {
	f.Mat.Close()
}
