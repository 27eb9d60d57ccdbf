//go:build !windows
// +build !windows

package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// windowSource is unavailable off Windows: there is no portable
// client-area capture API this module can fall back to, and spec.md
// treats platform window enumeration as an external collaborator. The
// other three FrameSource kinds (VideoDevice, Desktop, Empty) remain
// fully functional.
type windowSource struct{}

func newWindowSource(caption string) (Source, error) {
	return nil, fmt.Errorf("%w: window capture requires a windows build (caption %q)", ErrSourceNotReady, caption)
}

func (s *windowSource) AcquireFrame() (gocv.Mat, error) { return gocv.Mat{}, ErrSourceNotReady }
func (s *windowSource) Close() error                    { return nil }
