// Package judgment implements the single template-matching primitive
// shared by every scene recognizer: load a reference image once, match it
// against a captured frame, and report a correlation ratio plus the point
// of the best match.
package judgment

import "gocv.io/x/gocv"

// ColorFormat selects the channel layout a SceneJudgment matches in, and
// therefore which correlation method and mask handling apply.
type ColorFormat int

const (
	ColorNone ColorFormat = iota
	ColorGray
	ColorRGB
	ColorRGBA
)

// gocvCode returns the conversion code to bring an arbitrary-channel Mat
// into this format, mirroring the color-format conversion table the
// teacher's capture pipeline keeps for BGRA/RGBA frames.
func (c ColorFormat) gocvCode(channels int) gocv.ColorConversionCode {
	switch c {
	case ColorGray:
		switch channels {
		case 4:
			return gocv.ColorBGRAToGray
		case 3:
			return gocv.ColorBGRToGray
		default:
			return gocv.ColorBGRToGray
		}
	case ColorRGB:
		switch channels {
		case 4:
			return gocv.ColorBGRAToBGR
		case 1:
			return gocv.ColorGrayToBGR
		default:
			return gocv.ColorBGRToBGR
		}
	case ColorRGBA:
		switch channels {
		case 3:
			return gocv.ColorBGRToBGRA
		case 1:
			return gocv.ColorGrayToBGRA
		default:
			return gocv.ColorBGRToBGRA
		}
	default:
		return gocv.ColorBGRToBGR
	}
}

// convertTo converts src into this color format, writing to dst. When
// src is already in this format channel-count-wise it is simply copied,
// mirroring cvt_color_to's no-op path for matching depths.
func (c ColorFormat) convertTo(src, dst *gocv.Mat) {
	channels := src.Channels()
	if channelsFor(c) == channels {
		src.CopyTo(dst)
		return
	}
	gocv.CvtColor(*src, dst, c.gocvCode(channels))
}

// ConvertTo exposes the same GRAY/RGB/RGBA conversion SceneJudgment uses
// internally to callers outside this package: scene recognizers need it
// for OCR preprocessing, mirroring the original's standalone
// cvt_color_to utility rather than a method private to template
// matching.
func (c ColorFormat) ConvertTo(src, dst *gocv.Mat) {
	c.convertTo(src, dst)
}

func channelsFor(c ColorFormat) int {
	switch c {
	case ColorGray:
		return 1
	case ColorRGB:
		return 3
	case ColorRGBA:
		return 4
	default:
		return 3
	}
}
