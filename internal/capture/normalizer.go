package capture

import (
	"image"

	"gocv.io/x/gocv"
)

// resolutionCandidates are pixel-per-16:9-unit values to try during
// calibration; R=40 corresponds directly to the normalized 640x360
// output (640 = 40*16, 360 = 40*9).
var resolutionCandidates = []int{40, 44, 50, 53, 60, 64, 70, 80, 90, 96, 100, 110, 120}

const (
	normalizedWidth  = 640
	normalizedHeight = 360
	baseResolution   = 40
)

// ReadyToFightMatcher reports whether a frame shows the ReadyToFight
// scene and, if so, the correlation ratio and match point. Implemented
// by judgment.SceneJudgment-backed recognizers; kept as an interface
// here so this package never imports scene recognition directly.
type ReadyToFightMatcher interface {
	Match(frame gocv.Mat) (ratio float64, point image.Point, ok bool)
}

// Normalizer locates the game region inside a raw capture and produces
// a 640x360 RGB frame aligned with the game's UI. It is stateful: the
// first successful Calibrate call fixes the content rectangle that
// every later Apply call reuses.
type Normalizer struct {
	matcher     ReadyToFightMatcher
	contentRect image.Rectangle
	calibrated  bool
}

// NewNormalizer builds a Normalizer. matcher may be nil when building a
// Normalizer purely to exercise Apply in a test with a pre-set content
// rectangle via SetContentRectForTest.
func NewNormalizer(matcher ReadyToFightMatcher) *Normalizer {
	return &Normalizer{matcher: matcher}
}

// Calibrate searches resolutionCandidates for a ReadyToFight match,
// scaling the raw frame by 40/R for each candidate, then refines the
// resulting content rectangle by testing +/-1 pixel shifts and keeping
// whichever shift yields the highest ratio. Returns ErrCalibrationFailed
// if no candidate resolution produces a match.
func (n *Normalizer) Calibrate(raw gocv.Mat) error {
	if n.matcher == nil {
		return ErrCalibrationFailed
	}

	bestRatio := 0.0
	var bestRect image.Rectangle
	bestR := baseResolution
	found := false

	for _, r := range resolutionCandidates {
		scale := float64(baseResolution) / float64(r)
		scaled := gocv.NewMat()
		gocv.Resize(raw, &scaled, image.Point{}, scale, scale, gocv.InterpolationLinear)

		ratio, point, ok := n.matcher.Match(scaled)
		scaled.Close()
		if !ok {
			continue
		}

		magnification := float64(r) / float64(baseResolution)
		x := int(magnification * float64(point.X))
		y := int(magnification * float64(point.Y))
		rect := image.Rect(x, y, x+r*16, y+r*9)

		if ratio > bestRatio {
			bestRatio = ratio
			bestRect = rect
			bestR = r
			found = true
		}
	}

	if !found {
		return ErrCalibrationFailed
	}

	n.contentRect = n.refine(raw, bestRect, bestRatio, bestR)
	n.calibrated = true
	return nil
}

// refine tests the eight neighboring +/-1px shifts of rect (skipping any
// that would move the crop outside the frame) and returns whichever
// shift produced the best ratio, including the unshifted rect itself.
// Each candidate crop is taken at the raw frame's resolution r, so it
// must be rescaled by baseResolution/r before matching: matcher expects
// a crop already normalized to the base resolution's dimensions, the
// same way Calibrate's initial scan rescales the whole frame up front.
func (n *Normalizer) refine(raw gocv.Mat, rect image.Rectangle, baseRatio float64, r int) image.Rectangle {
	cols, rows := raw.Cols(), raw.Rows()
	best := rect
	bestRatio := baseRatio
	scale := float64(baseResolution) / float64(r)

	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			candidate := rect.Add(image.Pt(dx, dy))
			if candidate.Min.X < 0 || candidate.Min.Y < 0 {
				continue
			}
			if candidate.Max.X > cols || candidate.Max.Y > rows {
				continue
			}

			cropped := raw.Region(candidate)
			scaled := gocv.NewMat()
			gocv.Resize(cropped, &scaled, image.Point{}, scale, scale, gocv.InterpolationLinear)
			cropped.Close()

			ratio, _, ok := n.matcher.Match(scaled)
			scaled.Close()
			if ok && ratio > bestRatio {
				bestRatio = ratio
				best = candidate
			}
		}
	}
	return best
}

// SetContentRectForTest fixes the content rectangle directly, bypassing
// Calibrate's template search. Used by tests driving Apply in isolation.
func (n *Normalizer) SetContentRectForTest(rect image.Rectangle) {
	n.contentRect = rect
	n.calibrated = true
}

// Apply crops raw to the calibrated content rectangle and resizes it to
// the normalized 640x360 output. Calibrate (or SetContentRectForTest)
// must have run first.
func (n *Normalizer) Apply(raw gocv.Mat) (gocv.Mat, error) {
	if !n.calibrated {
		return gocv.Mat{}, ErrCalibrationFailed
	}

	cropped := raw.Region(n.contentRect)
	defer cropped.Close()

	out := gocv.NewMat()
	gocv.Resize(cropped, &out, image.Pt(normalizedWidth, normalizedHeight), 0, 0, gocv.InterpolationLinear)
	return out, nil
}

// Calibrated reports whether Calibrate has succeeded.
func (n *Normalizer) Calibrated() bool { return n.calibrated }

// ContentRect returns the calibrated content rectangle.
func (n *Normalizer) ContentRect() image.Rectangle { return n.contentRect }
