package scene

import (
	"testing"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/catalog"
)

// stubRecognizer is a Recognizer test double driven entirely by closures,
// so dispatcher behavior can be tested without any real template image.
type stubRecognizer struct {
	continueMatch func(State) bool
	isScene       func(gocv.Mat, *battle.Accumulator) (bool, error)
	toScene       func(State) State
	recorded      bool
	detectCalls   int
}

func (s *stubRecognizer) ContinueMatch(current State) bool { return s.continueMatch(current) }
func (s *stubRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	return s.isScene(frame, acc)
}
func (s *stubRecognizer) ToScene(current State) State { return s.toScene(current) }
func (s *stubRecognizer) RecordingScene(frame gocv.Mat) error { return nil }
func (s *stubRecognizer) IsRecorded() bool                    { return s.recorded }
func (s *stubRecognizer) DetectData(acc *battle.Accumulator) error {
	s.detectCalls++
	return nil
}

func never(State) bool       { return false }
func always(State) bool      { return true }
func noMatch(gocv.Mat, *battle.Accumulator) (bool, error) { return false, nil }
func holdScene(s State) State { return s }

func newTestAccumulator() *battle.Accumulator {
	return battle.NewAccumulator(catalog.Catalog{})
}

func TestDispatcherFixedOrderFirstMatchWins(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	var secondCalled bool
	first := &stubRecognizer{
		continueMatch: always,
		isScene:       func(gocv.Mat, *battle.Accumulator) (bool, error) { return true, nil },
		toScene:       func(State) State { return Matching },
	}
	second := &stubRecognizer{
		continueMatch: always,
		isScene: func(gocv.Mat, *battle.Accumulator) (bool, error) {
			secondCalled = true
			return true, nil
		},
		toScene: func(State) State { return GameEnd },
	}
	noop := func(name string) *stubRecognizer {
		return &stubRecognizer{continueMatch: never, isScene: noMatch, toScene: holdScene}
	}

	d := NewDispatcher(nil, first, second, noop("m"), noop("h"), noop("gs"), noop("gp"), noop("ge"), noop("r"), newTestAccumulator())

	if err := d.Tick(frame); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if d.State() != Matching {
		t.Fatalf("expected first recognizer's transition to win, got %v", d.State())
	}
	if secondCalled {
		t.Fatalf("second recognizer should not run once an earlier one matched")
	}
}

func TestDispatcherRunsFoldWithoutLoadingRecognizer(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	var ran bool
	rec := &stubRecognizer{
		continueMatch: always,
		isScene: func(gocv.Mat, *battle.Accumulator) (bool, error) {
			ran = true
			return false, nil
		},
		toScene: holdScene,
	}
	noop := func() *stubRecognizer {
		return &stubRecognizer{continueMatch: never, isScene: noMatch, toScene: holdScene}
	}

	d := NewDispatcher(nil, rec, noop(), noop(), noop(), noop(), noop(), noop(), noop(), newTestAccumulator())
	if err := d.Tick(frame); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if !ran {
		t.Fatalf("expected fixed-order fold to run when no loading recognizer is wired")
	}
}

func TestDispatcherOwnerDetectDataRunsOnceRecorded(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	hamVsSpam := &stubRecognizer{
		continueMatch: func(current State) bool { return current == Matching },
		isScene:       func(gocv.Mat, *battle.Accumulator) (bool, error) { return true, nil },
		toScene:       func(State) State { return HamVsSpam },
		recorded:      true,
	}
	noop := func() *stubRecognizer {
		return &stubRecognizer{continueMatch: never, isScene: noMatch, toScene: holdScene}
	}

	d := NewDispatcher(nil, noop(), noop(), noop(), hamVsSpam, noop(), noop(), noop(), noop(), newTestAccumulator())
	d.current = Matching

	// First tick: the fold transitions into HamVsSpam but the owner
	// check at the top of Tick still sees the pre-transition state, so
	// DetectData hasn't run yet.
	if err := d.Tick(frame); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if d.State() != HamVsSpam {
		t.Fatalf("expected transition to HamVsSpam, got %v", d.State())
	}
	if hamVsSpam.detectCalls != 0 {
		t.Fatalf("expected no DetectData call on the transitioning tick, got %d calls", hamVsSpam.detectCalls)
	}

	// Second tick: HamVsSpam now owns the current state, so its recorded
	// buffer is drained.
	if err := d.Tick(frame); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if hamVsSpam.detectCalls != 1 {
		t.Fatalf("expected DetectData to run once the owner reports recorded, got %d calls", hamVsSpam.detectCalls)
	}
}
