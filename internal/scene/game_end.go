package scene

import (
	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/judgment"
)

// GameEndRecognizer detects either of the two ways a match can end:
// "GAME SET" (a stock/stamina KO) or "TIME UP" (the clock running out).
// Most battles end via GAME SET, so it is checked first.
type GameEndRecognizer struct {
	gameSet *judgment.SceneJudgment
	timeUp  *judgment.SceneJudgment
}

func NewGameEndRecognizer(langDir string) (*GameEndRecognizer, error) {
	gameSet, err := judgment.LoadGray(langDir+"/game_set_color.png", langDir+"/game_set_mask.png")
	if err != nil {
		return nil, err
	}
	gameSet.SetBorder(0.85)

	timeUp, err := judgment.LoadGray(langDir+"/time_up_color.png", langDir+"/time_up_mask.png")
	if err != nil {
		return nil, err
	}
	timeUp.SetBorder(0.85)

	return &GameEndRecognizer{gameSet: gameSet, timeUp: timeUp}, nil
}

func (r *GameEndRecognizer) ContinueMatch(current State) bool {
	return current == GamePlaying
}

func (r *GameEndRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	if err := r.gameSet.MatchAgainst(frame); err != nil {
		return false, err
	}
	if !r.gameSet.IsNearMatch() {
		if err := r.timeUp.MatchAgainst(frame); err != nil {
			return false, err
		}
	}
	return r.gameSet.IsNearMatch() || r.timeUp.IsNearMatch(), nil
}

func (r *GameEndRecognizer) ToScene(current State) State { return GameEnd }

func (r *GameEndRecognizer) RecordingScene(frame gocv.Mat) error { return nil }
func (r *GameEndRecognizer) IsRecorded() bool                    { return false }
func (r *GameEndRecognizer) DetectData(acc *battle.Accumulator) error { return nil }
