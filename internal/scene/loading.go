package scene

import (
	"image"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/judgment"
)

// LoadingRecognizer detects the "now loading" spinner that can interrupt
// any other scene. It never advances the dispatcher state itself: the
// dispatcher treats a Loading match as "hold whatever state we were in"
// rather than transitioning, since loading can occur between any two
// scenes.
type LoadingRecognizer struct {
	judgment *judgment.SceneJudgment
}

// NewLoadingRecognizer builds the recognizer from the loading spinner's
// color/mask template pair, restricted to the band of the frame it
// actually appears in to keep the (frequently run) match cheap.
func NewLoadingRecognizer(resourceDir string) (*LoadingRecognizer, error) {
	j, err := judgment.LoadGray(resourceDir+"/loading_color.png", resourceDir+"/loading_mask.png")
	if err != nil {
		return nil, err
	}
	j.SetBorder(0.95).SetSize(image.Rect(0, 100, 640, 360))
	return &LoadingRecognizer{judgment: j}, nil
}

// ContinueMatch always returns true: loading can interrupt any scene.
func (r *LoadingRecognizer) ContinueMatch(current State) bool { return true }

func (r *LoadingRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	if err := r.judgment.MatchAgainst(frame); err != nil {
		return false, err
	}
	return r.judgment.IsNearMatch(), nil
}

// ToScene holds the dispatcher in its current state: loading can
// precede several different next scenes, so there's nothing useful to
// transition to from here alone.
func (r *LoadingRecognizer) ToScene(current State) State { return current }

func (r *LoadingRecognizer) RecordingScene(frame gocv.Mat) error { return nil }
func (r *LoadingRecognizer) IsRecorded() bool                    { return false }
func (r *LoadingRecognizer) DetectData(acc *battle.Accumulator) error { return nil }
