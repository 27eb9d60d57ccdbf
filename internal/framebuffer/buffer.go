package framebuffer

import (
	"time"

	"gocv.io/x/gocv"

	"smabrog/internal/metrics"
)

// State is the FrameBuffer's lifecycle stage.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateFilled
	StateReplaying
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StateFilled:
		return "filled"
	case StateReplaying:
		return "replaying"
	default:
		return "idle"
	}
}

var allBufferStates = []string{
	StateIdle.String(), StateRecording.String(), StateFilled.String(), StateReplaying.String(),
}

// FrameBuffer records frames to a container file, then replays them,
// then releases. Writer and reader are never open at the same time: the
// writer is released before the reader is opened, matching the
// writer-xor-reader invariant in spec.md §4.4/§5.
type FrameBuffer struct {
	codec Codec

	writer *gocv.VideoWriter
	reader *gocv.VideoCapture

	recordedFrames int
	filled         bool
	replayDone     bool

	recordUntil     time.Time
	hasDeadline     bool
	recordNeedFrame int
	hasFrameTarget  bool

	now func() time.Time
}

// New builds a FrameBuffer against the given codec. now defaults to
// time.Now; tests may override it for deterministic deadlines.
func New(codec Codec) *FrameBuffer {
	return &FrameBuffer{codec: codec, now: time.Now}
}

// SetClock overrides the FrameBuffer's time source, for tests.
func (b *FrameBuffer) SetClock(now func() time.Time) { b.now = now }

// State reports the buffer's current lifecycle stage.
func (b *FrameBuffer) State() State {
	state := b.rawState()
	metrics.SetFrameBufferState(state.String(), allBufferStates)
	return state
}

func (b *FrameBuffer) rawState() State {
	switch {
	case b.reader != nil && !b.filled:
		return StateReplaying
	case b.filled:
		return StateFilled
	case b.writer != nil:
		return StateRecording
	default:
		return StateIdle
	}
}

// StartByTime begins recording from now until now+d. A no-op if
// recording is already underway.
func (b *FrameBuffer) StartByTime(d time.Duration) error {
	if b.isRecordingStarted() {
		return nil
	}
	if err := b.recordingInitialize(); err != nil {
		return err
	}
	start := b.now()
	b.recordUntil = start.Add(d)
	b.hasDeadline = true
	return nil
}

// StartByFrame begins recording until n frames have been written. A
// no-op if recording is already underway.
func (b *FrameBuffer) StartByFrame(n int) error {
	if b.isRecordingStarted() {
		return nil
	}
	if err := b.recordingInitialize(); err != nil {
		return err
	}
	b.recordNeedFrame = n
	b.hasFrameTarget = true
	b.recordedFrames = 0
	return nil
}

func (b *FrameBuffer) recordingInitialize() error {
	b.hasDeadline = false
	b.hasFrameTarget = false
	b.recordedFrames = 0
	b.filled = false
	b.replayDone = false

	if b.reader != nil {
		b.reader.Close()
		b.reader = nil
	}

	w, err := b.codec.OpenWriter()
	if err != nil {
		return err
	}
	b.writer = w
	return nil
}

// isRecordingStarted reports whether a StartByTime/StartByFrame call has
// taken effect: the writer is open and one of the two stop conditions
// has been armed. It stays true for the whole recording window, not
// just at the instant recording began.
func (b *FrameBuffer) isRecordingStarted() bool {
	if b.writer == nil || !b.writer.IsOpened() {
		return false
	}
	return b.hasDeadline || b.hasFrameTarget
}

func (b *FrameBuffer) isRecordingEnd() bool {
	if !b.isRecordingStarted() {
		return false
	}
	if b.hasDeadline {
		return !b.now().Before(b.recordUntil)
	}
	if b.hasFrameTarget {
		return b.recordNeedFrame <= b.recordedFrames
	}
	return false
}

// Push writes one frame if recording, and is a no-op otherwise. Frames
// are converted BGRA->RGBA on write so replayed frames match the
// direct-capture color order once passed back through the container
// codec.
func (b *FrameBuffer) Push(frame gocv.Mat) error {
	if b.filled {
		return nil
	}
	if b.writer == nil || !b.writer.IsOpened() {
		return nil
	}

	converted := gocv.NewMat()
	defer converted.Close()
	gocv.CvtColor(frame, &converted, gocv.ColorBGRAToRGBA)

	if err := b.writer.Write(converted); err != nil {
		return err
	}
	b.recordedFrames++

	if b.isRecordingEnd() {
		return b.replayInitialize()
	}
	return nil
}

func (b *FrameBuffer) replayInitialize() error {
	if b.reader != nil && b.reader.IsOpened() {
		return nil
	}
	if b.writer != nil {
		b.writer.Close()
		b.writer = nil
	}

	r, err := b.codec.OpenReader()
	if err != nil {
		return err
	}
	b.reader = r
	b.filled = true
	return nil
}

// IsFilled reports whether recording finished and a replay is ready.
func (b *FrameBuffer) IsFilled() bool { return b.filled }

// ReplayCallback receives one replayed frame and reports whether replay
// should stop early.
type ReplayCallback func(frame gocv.Mat) (done bool, err error)

// Replay pulls one frame per call and invokes cb. When cb returns
// done=true, or the stored frames are exhausted, the reader is released
// and the buffer returns to Idle.
func (b *FrameBuffer) Replay(cb ReplayCallback) (bool, error) {
	if b.reader == nil || !b.reader.IsOpened() || !b.filled {
		return false, nil
	}

	frame := gocv.NewMat()
	defer frame.Close()
	if ok := b.reader.Read(&frame); !ok || frame.Empty() {
		b.replayFinalize()
		return false, nil
	}

	done, err := cb(frame)
	if err != nil {
		return true, err
	}
	if done {
		b.replayFinalize()
	}
	return true, nil
}

func (b *FrameBuffer) replayFinalize() {
	if b.reader != nil {
		b.reader.Close()
		b.reader = nil
	}
	b.filled = false
	b.replayDone = true
	b.recordedFrames = 0
}

// IsReplayEnd reports whether the most recent replay ran to completion
// or was stopped early.
func (b *FrameBuffer) IsReplayEnd() bool { return b.replayDone }

// Close releases whichever of writer/reader is open.
func (b *FrameBuffer) Close() error {
	if b.writer != nil {
		b.writer.Close()
		b.writer = nil
	}
	if b.reader != nil {
		b.reader.Close()
		b.reader = nil
	}
	return nil
}
