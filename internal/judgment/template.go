package judgment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// ErrTemplateLoad is returned when a reference image or mask cannot be
// read from disk. This is always a startup-time failure: the caller
// treats it as fatal, since the recognizer that needs the template
// cannot run without it.
type ErrTemplateLoad struct {
	Path string
	Err  error
}

func (e *ErrTemplateLoad) Error() string {
	return fmt.Sprintf("load template %s: %v", e.Path, e.Err)
}

func (e *ErrTemplateLoad) Unwrap() error { return e.Err }

// loadImage reads an image file preserving whatever channel count it was
// saved with (including alpha), matching IMREAD_UNCHANGED.
func loadImage(path string) (gocv.Mat, error) {
	m := gocv.IMReadWithParams(path, gocv.IMReadUnchanged)
	if m.Empty() {
		m.Close()
		return gocv.Mat{}, &ErrTemplateLoad{Path: path, Err: fmt.Errorf("empty or unreadable image")}
	}
	return m, nil
}

// Region names a sub-rectangle of a captured frame that a SceneJudgment
// is restricted to search, both to speed up the match and to avoid
// background noise outside the relevant UI area.
type Region = image.Rectangle
