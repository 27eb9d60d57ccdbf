package scene

import (
	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/judgment"
)

// DialogRecognizer detects the "retry against the same opponent?" style
// prompt. It only needs to be checked after Result, since any other
// scene that could show a dialog (disconnects, etc.) routes back through
// ReadyToFight first.
type DialogRecognizer struct {
	judgment *judgment.SceneJudgment
}

func NewDialogRecognizer(resourceDir string) (*DialogRecognizer, error) {
	j, err := judgment.Load(resourceDir+"/battle_retry_color.png", resourceDir+"/battle_retry_mask.png")
	if err != nil {
		return nil, err
	}
	j.SetBorder(0.98)
	return &DialogRecognizer{judgment: j}, nil
}

func (r *DialogRecognizer) ContinueMatch(current State) bool {
	return current == Result
}

func (r *DialogRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	if err := r.judgment.MatchAgainst(frame); err != nil {
		return false, err
	}
	return r.judgment.IsNearMatch(), nil
}

// ToScene always resets to Unknown: whatever path led here, the dialog
// means the next meaningful scene starts the state graph over.
func (r *DialogRecognizer) ToScene(current State) State { return Unknown }

func (r *DialogRecognizer) RecordingScene(frame gocv.Mat) error { return nil }
func (r *DialogRecognizer) IsRecorded() bool                    { return false }
func (r *DialogRecognizer) DetectData(acc *battle.Accumulator) error { return nil }
