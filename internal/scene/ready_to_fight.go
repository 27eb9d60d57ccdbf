package scene

import (
	"image"
	"time"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/judgment"
)

// ReadyToFightRecognizer detects the "READY to FIGHT" menu screen, in
// both its two on-screen variants: a gradient cursor resting on the
// button (grad) and the cursor deliberately moved off it (red). It also
// doubles as capture.ReadyToFightMatcher, letting the capture package's
// Normalizer calibrate against the same templates without importing
// this package.
type ReadyToFightRecognizer struct {
	grad *judgment.SceneJudgment
	red  *judgment.SceneJudgment

	skipWait int
}

func NewReadyToFightRecognizer(resourceDir string) (*ReadyToFightRecognizer, error) {
	grad, err := judgment.LoadGray(resourceDir+"/ready_to_fight_color_0.png", resourceDir+"/ready_to_fight_mask.png")
	if err != nil {
		return nil, err
	}
	grad.SetSize(image.Rect(0, 0, 640, 180))

	red, err := judgment.LoadGray(resourceDir+"/ready_to_fight_color_1.png", resourceDir+"/ready_to_fight_mask.png")
	if err != nil {
		return nil, err
	}
	red.SetSize(image.Rect(0, 0, 640, 180))

	return &ReadyToFightRecognizer{grad: grad, red: red}, nil
}

// ContinueMatch runs in every state except ReadyToFight itself: once
// there, the dispatcher has nowhere else useful to look for this scene
// until it leaves.
func (r *ReadyToFightRecognizer) ContinueMatch(current State) bool {
	return current != ReadyToFight
}

func (r *ReadyToFightRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	if acc != nil {
		if acc.IsPlayingBattle(time.Now()) {
			// Mid-battle, a ReadyToFight check only needs to run every
			// so often: it can't really be the actual scene, we're just
			// confirming the capture source is still alive.
			if r.skipWait > 0 {
				r.skipWait--
				return false, nil
			}
			r.skipWait = 10
		} else if r.skipWait > 0 {
			r.skipWait = 0
		}
	}

	// The gradient variant is the more common of the two, so it's
	// checked first.
	if err := r.grad.MatchAgainst(frame); err != nil {
		return false, err
	}
	if !r.grad.IsNearMatch() {
		if err := r.red.MatchAgainst(frame); err != nil {
			return false, err
		}
	}

	return r.grad.IsNearMatch() || r.red.IsNearMatch(), nil
}

func (r *ReadyToFightRecognizer) ToScene(current State) State { return ReadyToFight }

func (r *ReadyToFightRecognizer) RecordingScene(frame gocv.Mat) error { return nil }
func (r *ReadyToFightRecognizer) IsRecorded() bool                    { return false }
func (r *ReadyToFightRecognizer) DetectData(acc *battle.Accumulator) error { return nil }

// Match satisfies capture.ReadyToFightMatcher: it runs the same
// grad/red match used for scene recognition and reports whichever
// candidate scored higher, for the Normalizer's calibration search.
func (r *ReadyToFightRecognizer) Match(frame gocv.Mat) (float64, image.Point, bool) {
	if err := r.grad.MatchAgainst(frame); err != nil {
		return 0, image.Point{}, false
	}
	if err := r.red.MatchAgainst(frame); err != nil {
		return 0, image.Point{}, false
	}

	if r.red.PrevRatio > r.grad.PrevRatio {
		return r.red.PrevRatio, r.red.PrevPoint, r.red.IsNearMatch() || r.grad.IsNearMatch()
	}
	return r.grad.PrevRatio, r.grad.PrevPoint, r.grad.IsNearMatch() || r.red.IsNearMatch()
}
