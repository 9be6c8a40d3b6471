package media

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gocv.io/x/gocv"
)

// ErrEmptyMedia is returned when a video yields zero usable frames.
var ErrEmptyMedia = errors.New("no usable frames in media")

// DefaultSampleFPS is the default temporal sampling rate for video:
// one frame per second of stream time, independent of the native rate.
const DefaultSampleFPS = 1.0

// VideoSampler extracts frames from a video at a fixed temporal
// sampling rate, in ascending time order. It is a finite,
// non-restartable sequence: once Next reports the end, the sampler is
// drained for good.
//
// OpenCV's capture API wants a file path, so the bytes are spooled to
// a temp file that lives until Close.
type VideoSampler struct {
	capture  *gocv.VideoCapture
	tempPath string
	fps      float64
	interval int
	rawPos   int
	samples  int
	done     bool
}

// NewVideoSampler opens the video held in data, sampling sampleFPS
// frames per second of stream time (<= 0 selects DefaultSampleFPS).
func NewVideoSampler(data []byte, sampleFPS float64) (*VideoSampler, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedMedia)
	}
	if sampleFPS <= 0 {
		sampleFPS = DefaultSampleFPS
	}

	tmp, err := os.CreateTemp("", "detect-video-*")
	if err != nil {
		return nil, fmt.Errorf("spooling video: %w", err)
	}
	tempPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf("spooling video: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("spooling video: %w", err)
	}

	capture, err := gocv.VideoCaptureFile(tempPath)
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf("%w: container not readable", ErrUnsupportedMedia)
	}

	fps := capture.Get(gocv.VideoCaptureFPS)
	if fps <= 0 {
		fps = 30 // cameras and broken containers report 0
	}

	interval := int(fps / sampleFPS)
	if interval < 1 {
		interval = 1
	}

	return &VideoSampler{
		capture:  capture,
		tempPath: tempPath,
		fps:      fps,
		interval: interval,
	}, nil
}

// Next returns the next sampled frame, or ok=false once the stream is
// exhausted. Returned frames are owned by the caller.
func (v *VideoSampler) Next() (frame *Frame, ok bool) {
	if v.done {
		return nil, false
	}

	mat := gocv.NewMat()
	for {
		if !v.capture.Read(&mat) || mat.Empty() {
			mat.Close()
			v.done = true
			return nil, false
		}

		pos := v.rawPos
		v.rawPos++
		if pos%v.interval != 0 {
			continue
		}

		idx := v.samples
		v.samples++
		return &Frame{
			Mat:      mat,
			Index:    idx,
			Position: time.Duration(float64(pos) / v.fps * float64(time.Second)),
		}, true
	}
}

// Samples returns how many frames have been produced so far.
func (v *VideoSampler) Samples() int {
	return v.samples
}

// Close releases the capture and the spooled temp file.
func (v *VideoSampler) Close() error {
	var err error
	if v.capture != nil {
		err = v.capture.Close()
		v.capture = nil
	}
	if v.tempPath != "" {
		os.Remove(v.tempPath)
		v.tempPath = ""
	}
	return err
}
