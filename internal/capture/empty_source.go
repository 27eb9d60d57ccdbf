package capture

import "gocv.io/x/gocv"

// emptySource returns a preloaded placeholder frame. Used when no
// source is configured, so the dispatcher always has something to feed
// the recognizers during setup and in tests.
type emptySource struct {
	frame gocv.Mat
}

func newEmptySource(placeholderPNG string) (Source, error) {
	if placeholderPNG == "" {
		// A blank 640x360 RGB frame, matching CaptureBase's dummy_data.
		return &emptySource{frame: gocv.NewMatWithSize(360, 640, gocv.MatTypeCV8UC3)}, nil
	}
	frame := gocv.IMRead(placeholderPNG, gocv.IMReadColor)
	if frame.Empty() {
		return nil, ErrCalibrationFailed
	}
	return &emptySource{frame: frame}, nil
}

func (s *emptySource) AcquireFrame() (gocv.Mat, error) {
	return s.frame.Clone(), nil
}

func (s *emptySource) Close() error {
	return s.frame.Close()
}
