// Package capture implements the FrameSource contract and the
// calibration that locates a Smash Bros. match inside a raw capture.
package capture

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// Sentinel errors matching the source error taxonomy: CalibrationFailed
// is fatal to source initialization, FrameUnavailable is a transient
// per-tick hiccup the dispatcher tolerates by reusing the previous
// frame, SourceNotReady means the source was never successfully opened.
var (
	ErrSourceNotReady   = errors.New("capture: source not ready")
	ErrFrameUnavailable = errors.New("capture: frame unavailable")
	ErrCalibrationFailed = errors.New("capture: calibration failed, no ReadyToFight match")
)

// Source produces one frame on demand from a device, window, or the
// desktop. Implementations never share mutable state with each other;
// at most one Source is active in the pipeline at a time.
type Source interface {
	// AcquireFrame returns the next available frame. A transient
	// ErrFrameUnavailable is non-fatal; any other error is fatal to the
	// tick.
	AcquireFrame() (gocv.Mat, error)
	// Close releases any platform handle the source holds (device
	// context, capture device, window handle).
	Close() error
}

// Config selects which Source to build. Exactly one of the fields
// beyond Kind applies.
type Config struct {
	Kind           Kind
	WindowCaption  string
	VideoDeviceIdx int
	PlaceholderPNG string // Empty source's preloaded frame

	// ReadinessCheck verifies a VideoDevice's first frame shows the
	// ReadyToFight scene before the source is accepted. Required for
	// KindVideoDevice; the judgment package (which owns template
	// matching) supplies it, keeping this package free of a dependency
	// on scene recognition.
	ReadinessCheck func(gocv.Mat) bool

	// ReadyToFightMatcher drives the Desktop source's CaptureNormalizer.
	// Required for KindDesktop.
	ReadyToFightMatcher ReadyToFightMatcher
}

// Kind enumerates the four source variants in §4.1.
type Kind int

const (
	KindEmpty Kind = iota
	KindWindow
	KindVideoDevice
	KindDesktop
)

// New builds the Source selected by cfg. Changing the selection at
// runtime means discarding the previous Source (calling Close) and
// building a fresh one; this function never reuses platform handles
// across a Kind change.
func New(cfg Config) (Source, error) {
	switch cfg.Kind {
	case KindEmpty:
		return newEmptySource(cfg.PlaceholderPNG)
	case KindVideoDevice:
		return newVideoDeviceSource(cfg.VideoDeviceIdx, cfg.ReadinessCheck)
	case KindWindow:
		return newWindowSource(cfg.WindowCaption)
	case KindDesktop:
		return newDesktopSource(cfg.ReadyToFightMatcher)
	default:
		return nil, fmt.Errorf("capture: unknown source kind %d", cfg.Kind)
	}
}
