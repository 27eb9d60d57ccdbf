// Package imgutil holds small gocv-based image transforms shared by the
// scene recognizers: contour trimming ahead of OCR, and the NaN/Inf
// patching judgment.SceneJudgment also needs on its own correlation
// surface.
package imgutil

import (
	"image"

	"gocv.io/x/gocv"
)

// TrimOptions configures TrimToContours.
type TrimOptions struct {
	Margin     int
	MinArea    float64 // contours smaller than this are treated as noise
	MaxArea    float64 // contours larger than this are treated as noise; 0 disables the check
	NoiseFill  bool    // paint over noise contours instead of leaving them
	NoiseColor gocv.Scalar
}

// DefaultTrimOptions matches the upstream defaults: 10px minimum area,
// 10000px maximum, no fill.
func DefaultTrimOptions() TrimOptions {
	return TrimOptions{MinArea: 10.0, MaxArea: 10000.0}
}

// TrimToContours finds external contours in gray and crops src to the
// bounding box enclosing every contour whose area falls within
// [MinArea, MaxArea], expanded by Margin on every side. When the
// resulting rectangle collapses to nothing (no plausible contour found),
// the original image is returned unchanged rather than an empty Mat.
func TrimToContours(src gocv.Mat, gray gocv.Mat, opts TrimOptions) gocv.Mat {
	width, height := src.Cols(), src.Rows()

	contours := gocv.FindContours(gray, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	anyRect := image.Rect(width, height, 0, 0)
	found := false

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < opts.MinArea {
			if opts.NoiseFill {
				paintContour(src, contours, i, opts.NoiseColor)
			}
			continue
		}
		if opts.MaxArea > 0 && area > opts.MaxArea {
			if opts.NoiseFill {
				paintContour(src, contours, i, opts.NoiseColor)
			}
			continue
		}

		rect := gocv.BoundingRect(contour)
		found = true
		if rect.Min.X < anyRect.Min.X {
			anyRect.Min.X = rect.Min.X
		}
		if rect.Min.Y < anyRect.Min.Y {
			anyRect.Min.Y = rect.Min.Y
		}
		if rect.Max.X > anyRect.Max.X {
			anyRect.Max.X = rect.Max.X
		}
		if rect.Max.Y > anyRect.Max.Y {
			anyRect.Max.Y = rect.Max.Y
		}
	}

	if !found {
		return src.Clone()
	}

	trimX := clamp(anyRect.Min.X-opts.Margin, 0, width)
	trimY := clamp(anyRect.Min.Y-opts.Margin, 0, height)
	trimW := clamp(anyRect.Max.X+opts.Margin, 0, width) - trimX
	trimH := clamp(anyRect.Max.Y+opts.Margin, 0, height) - trimY

	if trimW <= 0 || trimH <= 0 {
		return src.Clone()
	}

	region := image.Rect(trimX, trimY, trimX+trimW, trimY+trimH)
	return src.Region(region).Clone()
}

func paintContour(m gocv.Mat, contours gocv.PointsVector, idx int, color gocv.Scalar) {
	gocv.DrawContours(&m, contours, idx, color, 1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
