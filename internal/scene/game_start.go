package scene

import (
	"context"
	"image"
	"strings"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/imgutil"
	"smabrog/internal/judgment"
	"smabrog/internal/ocr"
)

// GameStartRecognizer detects the moment the countdown timer appears in
// the top-right corner ("00.00"), rather than trying to read the "GO"
// text itself: "GO" carries too much animation overlay to match
// reliably, while the countdown's 00.00 layout is stable across every
// stage background. While the countdown holds, the BGM name band under
// it is read opportunistically; the scene ends (and GamePlaying begins)
// the instant the countdown stops matching.
type GameStartRecognizer struct {
	judgment  *judgment.SceneJudgment
	ocrEngine *ocr.Engine
	wasScene  bool
}

func NewGameStartRecognizer(resourceDir string) (*GameStartRecognizer, error) {
	j, err := judgment.Load(resourceDir+"/battle_time_color.png", resourceDir+"/battle_time_mask.png")
	if err != nil {
		return nil, err
	}
	j.SetBorder(0.90)
	return &GameStartRecognizer{judgment: j, ocrEngine: ocr.New()}, nil
}

func (r *GameStartRecognizer) ContinueMatch(current State) bool {
	return current == HamVsSpam
}

func (r *GameStartRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	if err := r.judgment.MatchAgainst(frame); err != nil {
		return false, err
	}

	if r.judgment.IsNearMatch() {
		r.wasScene = true
		if acc != nil {
			r.capturedBGMName(frame, acc)
		}
		return false, nil
	}

	if r.wasScene {
		// The countdown just stopped matching: the "GO" frame that
		// follows is GamePlaying's territory, not this recognizer's.
		r.wasScene = false
		return true, nil
	}
	return false, nil
}

// ToScene never yields GameStart itself: by the time this recognizer
// fires, the state it's reporting is already GamePlaying.
func (r *GameStartRecognizer) ToScene(current State) State { return GamePlaying }

func (r *GameStartRecognizer) RecordingScene(frame gocv.Mat) error { return nil }
func (r *GameStartRecognizer) IsRecorded() bool                    { return false }
func (r *GameStartRecognizer) DetectData(acc *battle.Accumulator) error { return nil }

func (r *GameStartRecognizer) capturedBGMName(frame gocv.Mat, acc *battle.Accumulator) {
	area := frame.Region(image.Rect(18, 30, 258, 48))
	defer area.Close()

	thresholded := gocv.NewMat()
	defer thresholded.Close()
	gocv.Threshold(area, &thresholded, 150, 255, gocv.ThresholdBinary)

	gray := gocv.NewMat()
	defer gray.Close()
	judgment.ColorGray.ConvertTo(&thresholded, &gray)

	opts := imgutil.DefaultTrimOptions()
	opts.Margin = 5
	opts.MinArea = 0
	opts.NoiseFill = true
	opts.NoiseColor = gocv.NewScalar(128, 128, 128, 0)
	trimmed := imgutil.TrimToContours(area, gray, opts)
	defer trimmed.Close()

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(trimmed, &inverted)

	text, err := r.ocrEngine.Recognize(context.Background(), inverted, ocr.ModeJapanese)
	if err != nil {
		return
	}
	text = strings.ReplaceAll(text, " ", "")
	if text == "" {
		return
	}
	acc.GuessBGMName(text)
}
