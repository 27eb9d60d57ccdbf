//go:build !windows
// +build !windows

package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

// desktopSource is unavailable off Windows for the same reason
// windowSource is: no portable GDI-equivalent BitBlt in this module's
// dependency set, and desktop enumeration is an external collaborator
// per spec.md §1.
type desktopSource struct{}

func newDesktopSource(matcher ReadyToFightMatcher) (Source, error) {
	return nil, fmt.Errorf("%w: desktop capture requires a windows build", ErrSourceNotReady)
}

func (s *desktopSource) AcquireFrame() (gocv.Mat, error) { return gocv.Mat{}, ErrSourceNotReady }
func (s *desktopSource) Close() error                    { return nil }
