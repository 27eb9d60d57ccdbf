package capture

import (
	"fmt"

	"gocv.io/x/gocv"
)

const (
	videoDeviceWidth  = 640
	videoDeviceHeight = 360
	videoDeviceFPS    = 30
)

// videoDeviceSource opens a video-capture device through gocv.VideoCapture
// at 640x360/30fps and verifies a ReadyToFight template is present in the
// first frame before accepting the device.
type videoDeviceSource struct {
	cap *gocv.VideoCapture
}

func newVideoDeviceSource(index int, readinessCheck func(gocv.Mat) bool) (Source, error) {
	cap, err := gocv.OpenVideoCapture(index)
	if err != nil {
		return nil, fmt.Errorf("%w: open video device %d: %v", ErrSourceNotReady, index, err)
	}
	cap.Set(gocv.VideoCaptureFrameWidth, videoDeviceWidth)
	cap.Set(gocv.VideoCaptureFrameHeight, videoDeviceHeight)
	cap.Set(gocv.VideoCaptureFPS, videoDeviceFPS)

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := cap.Read(&frame); !ok || frame.Empty() {
		cap.Close()
		return nil, fmt.Errorf("%w: device %d produced no frame", ErrSourceNotReady, index)
	}

	if readinessCheck != nil && !readinessCheck(frame) {
		cap.Close()
		return nil, ErrCalibrationFailed
	}

	return &videoDeviceSource{cap: cap}, nil
}

func (s *videoDeviceSource) AcquireFrame() (gocv.Mat, error) {
	frame := gocv.NewMat()
	if ok := s.cap.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return gocv.Mat{}, ErrFrameUnavailable
	}
	return frame, nil
}

func (s *videoDeviceSource) Close() error {
	return s.cap.Close()
}
