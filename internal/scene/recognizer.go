package scene

import (
	"gocv.io/x/gocv"

	"smabrog/internal/battle"
)

// Recognizer is the uniform shape every scene recognizer implements. The
// Dispatcher drives every recognizer through the same sequence each
// tick: ContinueMatch gates whether IsScene even runs; IsScene reports
// whether this frame belongs to the recognizer's scene (folding
// whatever cheap, always-available data it can straight into acc);
// ToScene computes the state the dispatcher should move to; and the
// Recording/DetectData trio lets a recognizer buffer frames across
// ticks and extract the expensive OCR-bound data later, once buffering
// completes.
type Recognizer interface {
	// ContinueMatch reports whether this recognizer should even attempt
	// a match given the dispatcher's current state.
	ContinueMatch(current State) bool

	// IsScene runs the recognizer's template match against frame and
	// reports whether it matched. acc is nil when no battle is being
	// tracked; recognizers that fold data must guard for that.
	IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error)

	// ToScene computes the next dispatcher state given the current one.
	ToScene(current State) State

	// RecordingScene buffers one frame for recognizers that need a short
	// window of frames to extract their data from (HamVsSpam, Result).
	// A no-op for recognizers that don't buffer.
	RecordingScene(frame gocv.Mat) error

	// IsRecorded reports whether a frame buffer has filled and
	// DetectData is ready to run.
	IsRecorded() bool

	// DetectData extracts data from whatever has been buffered, folding
	// it into acc. A no-op for recognizers that don't buffer.
	DetectData(acc *battle.Accumulator) error
}
