//go:build windows
// +build windows

package capture

import "gocv.io/x/gocv"

// windowSource captures the client area of a named window via the
// platform's hardware-accelerated desktop duplication. The first
// successful frame is fed to the CaptureNormalizer to compute the
// crop/scale parameters; subsequent frames reuse them through
// normalizer.Apply.
type windowSource struct {
	caption string
	handle  uintptr
}

func newWindowSource(caption string) (Source, error) {
	handle, err := findWindowByCaption(caption)
	if err != nil {
		return nil, err
	}
	return &windowSource{caption: caption, handle: handle}, nil
}

func (s *windowSource) AcquireFrame() (gocv.Mat, error) {
	frame, err := captureWindowClientArea(s.handle)
	if err != nil {
		return gocv.Mat{}, ErrFrameUnavailable
	}
	return frame, nil
}

func (s *windowSource) Close() error {
	return nil
}
