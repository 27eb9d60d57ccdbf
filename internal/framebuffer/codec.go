// Package framebuffer implements the FrameBuffer record/replay ring: a
// short-lived video container that records a bounded window of frames,
// then replays them once, then releases.
package framebuffer

import (
	"errors"
	"fmt"
	"log"

	"gocv.io/x/gocv"
)

// ErrCodecUnavailable is returned when no writer/reader backend+fourcc
// combination could be opened. The FrameBuffer disables itself;
// recognizers that depend on it (HamVsSpam, Result) degrade to
// no-data rather than failing the tick.
var ErrCodecUnavailable = errors.New("framebuffer: no codec combination available")

const (
	containerWidth  = 640
	containerHeight = 360
	containerFPS    = 15.0
)

// fourccCandidates are tried in order; the first that opens a writer
// successfully is kept for the lifetime of the process.
var fourccCandidates = []string{"HEVC", "H265", "X264", "FMP4", "ESDS", "MP4V", "MJPG"}

var extensionCandidates = []string{"mp4", "avi"}

// Codec is the backend+fourcc+file-extension combination this process
// will use for every FrameBuffer's container, probed once at startup.
type Codec struct {
	FileName string
	FourCC   string
}

// FindCodec probes combinations of {fourcc} x {extension} against
// baseName, keeping the first that opens a VideoWriter successfully at
// 640x360/15fps. gocv's VideoWriter doesn't expose an explicit backend
// selector the way the original's multi-backend probe does (OpenCV
// picks the backend for the given file extension itself), so the search
// degrades gracefully to fourcc x extension, which is the dimension the
// original's probe result actually varies on in practice.
func FindCodec(baseName string) (Codec, error) {
	for _, fourcc := range fourccCandidates {
		for _, ext := range extensionCandidates {
			fileName := fmt.Sprintf("%s.%s", baseName, ext)
			writer, err := gocv.VideoWriterFile(fileName, fourcc, containerFPS, containerWidth, containerHeight, true)
			if err != nil {
				continue
			}
			opened := writer.IsOpened()
			writer.Close()
			if opened {
				log.Printf("🎞️ codec initialized: fourcc=%s ext=%s file=%s", fourcc, ext, fileName)
				return Codec{FileName: fileName, FourCC: fourcc}, nil
			}
		}
	}
	return Codec{}, ErrCodecUnavailable
}

// OpenWriter opens a VideoWriter against this codec's file.
func (c Codec) OpenWriter() (*gocv.VideoWriter, error) {
	w, err := gocv.VideoWriterFile(c.FileName, c.FourCC, containerFPS, containerWidth, containerHeight, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodecUnavailable, err)
	}
	if !w.IsOpened() {
		w.Close()
		return nil, ErrCodecUnavailable
	}
	return &w, nil
}

// OpenReader opens a VideoCapture against this codec's file.
func (c Codec) OpenReader() (*gocv.VideoCapture, error) {
	r, err := gocv.VideoCaptureFile(c.FileName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCodecUnavailable, err)
	}
	if !r.IsOpened() {
		r.Close()
		return nil, ErrCodecUnavailable
	}
	return r, nil
}
