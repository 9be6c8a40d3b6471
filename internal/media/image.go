package media

import (
	"errors"
	"fmt"
	"time"

	"gocv.io/x/gocv"
)

// ErrUnsupportedMedia is returned when bytes cannot be parsed as a
// raster image or a readable video container.
var ErrUnsupportedMedia = errors.New("unsupported media")

// DecodeImage decodes raw image bytes into a single frame.
func DecodeImage(data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrUnsupportedMedia)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedMedia, err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%w: not a decodable image", ErrUnsupportedMedia)
	}

	return &Frame{Mat: mat}, nil
}

// DecodeCameraFrame decodes one already-discrete live frame and stamps
// it with its receipt time. No sampling is applied.
func DecodeCameraFrame(data []byte) (*Frame, error) {
	frame, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}
	frame.Captured = time.Now()
	return frame, nil
}
