package judgment

import (
	"math"

	"gocv.io/x/gocv"
)

// patchNaNAndInf replaces NaN and +/-Inf entries of a correlation
// response surface with a neutral value so MinMaxLoc can't be fooled
// into reporting a spurious peak. OpenCV itself has no such pass: NaN
// gets special handling in some builds but +/-Inf does not, so both are
// patched explicitly.
func patchNaNAndInf(m *gocv.Mat, to float32) {
	rows, cols := m.Rows(), m.Cols()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			v := m.GetFloatAt(y, x)
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				m.SetFloatAt(y, x, to)
			}
		}
	}
}

// makeTransMaskFromNoAlpha builds a transparency mask for a template
// that never had an alpha channel: pure black (0,0,0) pixels are
// treated as the transparent color, everything else is opaque.
func makeTransMaskFromNoAlpha(src gocv.Mat, dst *gocv.Mat) {
	lower := gocv.NewScalar(0, 0, 0, 0)
	upper := gocv.NewScalar(0, 0, 0, 0)
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(src, lower, upper, &mask)
	gocv.BitwiseNot(mask, dst)
}
