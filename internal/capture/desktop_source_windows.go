//go:build windows
// +build windows

package capture

import "gocv.io/x/gocv"

// desktopSource captures the full virtual desktop via GDI BitBlt. On
// the first call it runs the CaptureNormalizer's resolution search to
// find the game's region on screen and caches the result for every
// subsequent frame.
type desktopSource struct {
	normalizer *Normalizer
	calibrated bool
}

func newDesktopSource(matcher ReadyToFightMatcher) (Source, error) {
	return &desktopSource{normalizer: NewNormalizer(matcher)}, nil
}

func (s *desktopSource) AcquireFrame() (gocv.Mat, error) {
	raw, err := captureDesktopArea()
	if err != nil {
		return gocv.Mat{}, ErrFrameUnavailable
	}
	defer raw.Close()

	if !s.calibrated {
		if err := s.normalizer.Calibrate(raw); err != nil {
			return gocv.Mat{}, err
		}
		s.calibrated = true
	}
	return s.normalizer.Apply(raw)
}

func (s *desktopSource) Close() error { return nil }
