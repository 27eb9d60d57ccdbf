package scene

import (
	"context"
	"fmt"
	"image"
	"regexp"
	"strconv"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/imgutil"
	"smabrog/internal/judgment"
	"smabrog/internal/ocr"
)

// GamePlayingRecognizer watches for the large stock-count hyphen marker
// ("N - N") that appears whenever a player is hit in a 1-on-1 Stock or
// Stamina battle, and reads the stock numbers either side of it. It has
// nothing useful to do in a 4-player battle: the original never
// resolved a reliable per-player layout for that case either.
type GamePlayingRecognizer struct {
	stockBlack      *judgment.SceneJudgment
	stockWhite      *judgment.SceneJudgment
	stockNumberMask gocv.Mat
	ocrEngine       *ocr.Engine
}

func NewGamePlayingRecognizer(resourceDir string) (*GamePlayingRecognizer, error) {
	stockBlack, err := judgment.LoadGray(resourceDir+"/stock_hyphen_color_black.png", resourceDir+"/stock_hyphen_mask.png")
	if err != nil {
		return nil, err
	}
	stockBlack.SetSize(image.Rect(0, 100, 640, 200)).SetBorder(0.95)

	stockWhite, err := judgment.LoadGray(resourceDir+"/stock_hyphen_color_white.png", resourceDir+"/stock_hyphen_mask.png")
	if err != nil {
		return nil, err
	}
	stockWhite.SetSize(image.Rect(0, 100, 640, 200)).SetBorder(0.95)

	mask := gocv.IMReadWithParams(resourceDir+"/stock_number_mask.png", gocv.IMReadGrayScale)
	if mask.Empty() {
		return nil, fmt.Errorf("game_playing: empty or unreadable stock number mask")
	}

	return &GamePlayingRecognizer{
		stockBlack:      stockBlack,
		stockWhite:      stockWhite,
		stockNumberMask: mask,
		ocrEngine:       ocr.New(),
	}, nil
}

func (r *GamePlayingRecognizer) ContinueMatch(current State) bool {
	return current == GamePlaying
}

func (r *GamePlayingRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	if acc == nil {
		return false, nil
	}
	if acc.Data().PlayerCount != 2 {
		return false, nil
	}
	if acc.Data().Rule != battle.RuleStock && acc.Data().Rule != battle.RuleStamina {
		return false, nil
	}
	if acc.AllDecidedStock() {
		return false, nil
	}

	if err := r.stockBlack.MatchAgainst(frame); err != nil {
		return false, err
	}
	if !r.stockBlack.IsNearMatch() {
		if err := r.stockWhite.MatchAgainst(frame); err != nil {
			return false, err
		}
	}

	if r.stockBlack.IsNearMatch() || r.stockWhite.IsNearMatch() {
		r.capturedStockNumbers(frame, acc)
	}
	return false, nil
}

// ToScene holds GamePlaying until GameEnd fires; this recognizer never
// ends the scene itself.
func (r *GamePlayingRecognizer) ToScene(current State) State { return GamePlaying }

func (r *GamePlayingRecognizer) RecordingScene(frame gocv.Mat) error { return nil }
func (r *GamePlayingRecognizer) IsRecorded() bool                    { return false }
func (r *GamePlayingRecognizer) DetectData(acc *battle.Accumulator) error { return nil }

var stockDigitRe = regexp.MustCompile(`\d`)

func (r *GamePlayingRecognizer) capturedStockNumbers(frame gocv.Mat, acc *battle.Accumulator) {
	gray := gocv.NewMat()
	defer gray.Close()
	judgment.ColorGray.ConvertTo(&frame, &gray)

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAnd(gray, r.stockNumberMask, &masked)

	thresholded := gocv.NewMat()
	defer thresholded.Close()
	gocv.Threshold(masked, &thresholded, 250, 255, gocv.ThresholdBinary)

	reMasked := gocv.NewMat()
	defer reMasked.Close()
	gocv.BitwiseAnd(gray, thresholded, &reMasked)

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(reMasked, &inverted)

	width, height := frame.Cols(), frame.Rows()
	playerAreaWidth := width / acc.Data().PlayerCount

	for player := 0; player < acc.Data().PlayerCount; player++ {
		if acc.IsDecidedStock(player) {
			continue
		}

		area := image.Rect(
			playerAreaWidth*player, height/4,
			playerAreaWidth*player+playerAreaWidth, height/4+height/2,
		)
		stockArea := inverted.Region(area)
		grayStockArea := gray.Region(area)

		opts := imgutil.DefaultTrimOptions()
		opts.Margin = 5
		opts.MinArea = 1000
		trimmed := imgutil.TrimToContours(stockArea, grayStockArea, opts)

		text, err := r.ocrEngine.Recognize(context.Background(), trimmed, ocr.ModeDigits)
		trimmed.Close()
		stockArea.Close()
		grayStockArea.Close()
		if err != nil {
			continue
		}

		match := stockDigitRe.FindString(text)
		if match == "" {
			continue
		}
		n, err := strconv.Atoi(match)
		if err != nil {
			continue
		}
		acc.GuessStock(player, n)
	}
}
