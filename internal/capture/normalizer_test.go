package capture

import (
	"image"
	"testing"

	"gocv.io/x/gocv"
)

// fixedRatioMatcher reports a single fixed ratio/point, used to drive
// Calibrate deterministically without a real ReadyToFight template.
type fixedRatioMatcher struct {
	ratio float64
	point image.Point
}

func (m fixedRatioMatcher) Match(frame gocv.Mat) (float64, image.Point, bool) {
	return m.ratio, m.point, m.ratio > 0
}

func TestCalibrateFailsWithoutMatch(t *testing.T) {
	n := NewNormalizer(fixedRatioMatcher{ratio: 0})
	raw := gocv.NewMatWithSize(1080, 1920, gocv.MatTypeCV8UC3)
	defer raw.Close()

	if err := n.Calibrate(raw); err != ErrCalibrationFailed {
		t.Fatalf("expected ErrCalibrationFailed, got %v", err)
	}
}

func TestApplyBeforeCalibrateFails(t *testing.T) {
	n := NewNormalizer(nil)
	raw := gocv.NewMatWithSize(360, 640, gocv.MatTypeCV8UC3)
	defer raw.Close()

	if _, err := n.Apply(raw); err != ErrCalibrationFailed {
		t.Fatalf("expected ErrCalibrationFailed before calibration, got %v", err)
	}
}

// phaseTrackingMatcher returns a strictly increasing ratio on every call
// (so the last-scanned resolution candidate always wins the initial scan)
// and records the dimensions of every frame it's asked to match once the
// scan phase is over, so refine's rescaling behavior can be inspected.
type phaseTrackingMatcher struct {
	calls       int
	refineSizes []image.Point
}

func (m *phaseTrackingMatcher) Match(frame gocv.Mat) (float64, image.Point, bool) {
	m.calls++
	if m.calls > len(resolutionCandidates) {
		m.refineSizes = append(m.refineSizes, image.Pt(frame.Cols(), frame.Rows()))
	}
	return float64(m.calls), image.Pt(0, 0), true
}

func TestRefineRescalesCandidateCropToBaseResolution(t *testing.T) {
	m := &phaseTrackingMatcher{}
	n := NewNormalizer(m)

	// Last candidate in resolutionCandidates is 120, which the
	// strictly-increasing ratio guarantees wins the scan phase. Its
	// content rect is 120*16 x 120*9 = 1920x1080 at the origin, so the
	// raw frame needs a little headroom for the +/-1px refine shifts.
	raw := gocv.NewMatWithSize(1081, 1921, gocv.MatTypeCV8UC3)
	defer raw.Close()

	if err := n.Calibrate(raw); err != nil {
		t.Fatalf("Calibrate: %v", err)
	}

	if len(m.refineSizes) == 0 {
		t.Fatal("expected refine to invoke Match at least once")
	}
	for _, size := range m.refineSizes {
		if size.X != normalizedWidth || size.Y != normalizedHeight {
			t.Fatalf("refine matched a frame sized %dx%d, want %dx%d (rescaled to base resolution)",
				size.X, size.Y, normalizedWidth, normalizedHeight)
		}
	}
}

func TestApplyProducesNormalizedDimensions(t *testing.T) {
	n := NewNormalizer(nil)
	n.SetContentRectForTest(image.Rect(0, 0, 1920, 1080))

	raw := gocv.NewMatWithSize(1080, 1920, gocv.MatTypeCV8UC3)
	defer raw.Close()

	out, err := n.Apply(raw)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	defer out.Close()

	if out.Cols() != normalizedWidth || out.Rows() != normalizedHeight {
		t.Fatalf("expected %dx%d, got %dx%d", normalizedWidth, normalizedHeight, out.Cols(), out.Rows())
	}
}
