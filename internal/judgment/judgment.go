package judgment

import (
	"image"

	"gocv.io/x/gocv"
)

// defaultBorder is the correlation ratio above which a match is
// declared, absent an explicit SetBorder call.
const defaultBorder = 0.98

// SceneJudgment is a single template-matching primitive: it holds one
// reference image (plus optional mask) in a fixed color format and
// answers "does this frame look like me" via normalized correlation.
// Templates are built once at startup and are read-only afterward,
// except for a full Reload on language change.
type SceneJudgment struct {
	colorImage     gocv.Mat
	maskImage      gocv.Mat
	hasMask        bool
	transMaskImage gocv.Mat
	hasTransMask   bool

	region      Region
	hasRegion   bool
	format      ColorFormat
	border      float64
	PrevRatio   float64
	PrevPoint   image.Point
}

// NewGray builds a judgment that matches a single-channel (grayscale)
// template, ANDing the captured frame against mask before correlation
// when a mask is supplied.
func NewGray(colorImage gocv.Mat, maskImage *gocv.Mat) (*SceneJudgment, error) {
	return newColorFormat(colorImage, maskImage, ColorGray)
}

// New builds a judgment that matches a 3-channel template.
func New(colorImage gocv.Mat, maskImage *gocv.Mat) (*SceneJudgment, error) {
	return newColorFormat(colorImage, maskImage, ColorRGB)
}

// NewTrans builds a judgment for a 4-channel (alpha-transparent)
// template. When no mask is supplied, one is synthesized from the
// template's own alpha channel.
func NewTrans(colorImage gocv.Mat, maskImage *gocv.Mat) (*SceneJudgment, error) {
	converted := gocv.NewMat()
	ColorRGBA.convertTo(&colorImage, &converted)

	mask := gocv.NewMat()
	transMask := gocv.NewMat()
	if maskImage != nil {
		ColorRGBA.convertTo(maskImage, &transMask)
		ColorRGBA.convertTo(maskImage, &mask)
	} else {
		makeTransMaskFromNoAlpha(colorImage, &transMask)
	}

	return &SceneJudgment{
		colorImage:     converted,
		maskImage:      mask,
		hasMask:        true,
		transMaskImage: transMask,
		hasTransMask:   true,
		format:         ColorRGBA,
		border:         defaultBorder,
	}, nil
}

func newColorFormat(colorImage gocv.Mat, maskImage *gocv.Mat, format ColorFormat) (*SceneJudgment, error) {
	converted := gocv.NewMat()
	format.convertTo(&colorImage, &converted)

	j := &SceneJudgment{
		colorImage: converted,
		format:     format,
		border:     defaultBorder,
	}
	if maskImage != nil {
		convertedMask := gocv.NewMat()
		format.convertTo(maskImage, &convertedMask)
		j.maskImage = convertedMask
		j.hasMask = true
	}
	return j, nil
}

// LoadGray loads a grayscale template and optional mask from disk.
func LoadGray(colorPath, maskPath string) (*SceneJudgment, error) {
	return loadJudgment(colorPath, maskPath, NewGray)
}

// Load loads an RGB template and optional mask from disk.
func Load(colorPath, maskPath string) (*SceneJudgment, error) {
	return loadJudgment(colorPath, maskPath, New)
}

// LoadTrans loads a transparent template and optional mask from disk.
func LoadTrans(colorPath, maskPath string) (*SceneJudgment, error) {
	return loadJudgment(colorPath, maskPath, NewTrans)
}

type constructor func(gocv.Mat, *gocv.Mat) (*SceneJudgment, error)

func loadJudgment(colorPath, maskPath string, build constructor) (*SceneJudgment, error) {
	colorImage, err := loadImage(colorPath)
	if err != nil {
		return nil, err
	}
	defer colorImage.Close()

	var maskPtr *gocv.Mat
	if maskPath != "" {
		maskImage, err := loadImage(maskPath)
		if err != nil {
			return nil, err
		}
		defer maskImage.Close()
		maskPtr = &maskImage
	}

	return build(colorImage, maskPtr)
}

// SetBorder sets the correlation ratio above which IsNearMatch reports
// true. Returns the receiver for builder-style chaining.
func (j *SceneJudgment) SetBorder(border float64) *SceneJudgment {
	j.border = border
	return j
}

// SetSize restricts matching to a sub-rectangle of the captured frame,
// cropping the template (and any masks) to that rectangle up front so
// the match itself stays cheap.
func (j *SceneJudgment) SetSize(region Region) *SceneJudgment {
	j.region = region
	j.hasRegion = true

	j.colorImage = roi(j.colorImage, region)
	if j.hasMask {
		j.maskImage = roi(j.maskImage, region)
	}
	if j.hasTransMask {
		j.transMaskImage = roi(j.transMaskImage, region)
	}
	return j
}

func roi(m gocv.Mat, r Region) gocv.Mat {
	rect := image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Max.Y)
	return m.Region(rect)
}

// Border returns the configured match threshold.
func (j *SceneJudgment) Border() float64 { return j.border }

// MatchAgainst runs template matching against a captured frame, storing
// the best correlation ratio and its location. Gray/RGB modes AND the
// frame against the mask (when present) before correlating with
// TM_CCOEFF_NORMED; RGBA mode correlates with TM_CCORR_NORMED weighted
// by the transparency mask. NaN and +/-Inf entries in the response
// surface are patched to 0 before locating the maximum, since a stray
// NaN would otherwise win MinMaxLoc.
func (j *SceneJudgment) MatchAgainst(captured gocv.Mat) error {
	var region gocv.Mat
	if j.hasRegion {
		region = roi(captured, j.region)
	} else {
		region = captured
	}

	converted := gocv.NewMat()
	defer converted.Close()
	j.format.convertTo(&region, &converted)

	result := gocv.NewMat()
	defer result.Close()

	switch j.format {
	case ColorGray, ColorRGB:
		matchSource := converted
		if j.hasMask {
			masked := gocv.NewMat()
			defer masked.Close()
			gocv.BitwiseAnd(converted, j.maskImage, &masked)
			matchSource = masked
		}
		gocv.MatchTemplate(matchSource, j.colorImage, &result, gocv.TmCcoeffNormed, gocv.NewMat())
	case ColorRGBA:
		if j.hasTransMask {
			gocv.MatchTemplate(converted, j.colorImage, &result, gocv.TmCcorrNormed, j.transMaskImage)
		}
	}

	patchNaNAndInf(&result, 0)

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	j.PrevRatio = float64(maxVal)
	j.PrevPoint = maxLoc
	return nil
}

// IsNearMatch reports whether the most recent MatchAgainst cleared the
// configured border ratio.
func (j *SceneJudgment) IsNearMatch() bool {
	return j.border <= j.PrevRatio
}

// Close releases the underlying gocv.Mat resources.
func (j *SceneJudgment) Close() {
	j.colorImage.Close()
	if j.hasMask {
		j.maskImage.Close()
	}
	if j.hasTransMask {
		j.transMaskImage.Close()
	}
}
