package scene

import (
	"image"
	"time"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/judgment"
)

// MatchingRecognizer detects the pre-battle "CPU or online opponent
// found" screen and, from which of its four variants matched,
// initializes the battle's player count and (for the tournament
// variants) its rule.
type MatchingRecognizer struct {
	ready2p  *judgment.SceneJudgment
	ready4p  *judgment.SceneJudgment
	oooTourn *judgment.SceneJudgment
	smashTourn *judgment.SceneJudgment
}

func NewMatchingRecognizer(resourceDir, langDir string) (*MatchingRecognizer, error) {
	ready2p, err := judgment.Load(langDir+"/ready_ok_color.png", langDir+"/ready_ok_mask.png")
	if err != nil {
		return nil, err
	}
	ready2p.SetBorder(0.92).SetSize(image.Rect(0, 270, 320, 360))

	ready4p, err := judgment.Load(langDir+"/with_4_battle_color.png", langDir+"/with_4_battle_mask.png")
	if err != nil {
		return nil, err
	}
	ready4p.SetSize(image.Rect(0, 270, 640, 360))

	oooTourn, err := judgment.Load(resourceDir+"/ooo_tournament_color.png", resourceDir+"/tournament_mask.png")
	if err != nil {
		return nil, err
	}
	oooTourn.SetBorder(0.95).SetSize(image.Rect(0, 0, 640, 30))

	smashTourn, err := judgment.Load(resourceDir+"/smash_tournament_color.png", resourceDir+"/tournament_mask.png")
	if err != nil {
		return nil, err
	}
	smashTourn.SetBorder(0.95).SetSize(image.Rect(0, 0, 640, 30))

	return &MatchingRecognizer{ready2p: ready2p, ready4p: ready4p, oooTourn: oooTourn, smashTourn: smashTourn}, nil
}

func (r *MatchingRecognizer) ContinueMatch(current State) bool {
	switch current {
	case Unknown, ReadyToFight, GameEnd, Result:
		return true
	default:
		return false
	}
}

func (r *MatchingRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	// smashTourn (4p tournament) is loaded but not matched: its on-screen
	// text overlaps the 4p variant too closely to disambiguate reliably.
	// The tournament variants are checked first since the 2p/4p templates
	// would otherwise false-positive against them.
	if err := r.oooTourn.MatchAgainst(frame); err != nil {
		return false, err
	}
	if !r.oooTourn.IsNearMatch() {
		if err := r.ready4p.MatchAgainst(frame); err != nil {
			return false, err
		}
		if !r.ready4p.IsNearMatch() {
			if err := r.ready2p.MatchAgainst(frame); err != nil {
				return false, err
			}
		}
	}

	if acc == nil {
		return r.ready2p.IsNearMatch() || r.ready4p.IsNearMatch() || r.oooTourn.IsNearMatch(), nil
	}

	switch {
	case r.ready2p.IsNearMatch():
		acc.InitializeBattle(2, time.Now())
		return true, nil
	case r.ready4p.IsNearMatch():
		acc.InitializeBattle(4, time.Now())
		return true, nil
	case r.oooTourn.IsNearMatch():
		acc.InitializeBattle(2, time.Now())
		acc.SetRule(battle.RuleTournament)
		return true, nil
	}

	return false, nil
}

func (r *MatchingRecognizer) ToScene(current State) State { return Matching }

func (r *MatchingRecognizer) RecordingScene(frame gocv.Mat) error { return nil }
func (r *MatchingRecognizer) IsRecorded() bool                    { return false }
func (r *MatchingRecognizer) DetectData(acc *battle.Accumulator) error { return nil }
