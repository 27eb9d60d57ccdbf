package scene

import (
	"context"
	"image"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/framebuffer"
	"smabrog/internal/imgutil"
	"smabrog/internal/judgment"
	"smabrog/internal/ocr"
)

// HamVsSpamRecognizer detects the "character vs character" splash screen
// that opens a battle, buffers 2.5s of it, and later extracts both
// players' character names and the rule-specific clauses (time limit,
// stock count, HP limit) shown underneath them.
type HamVsSpamRecognizer struct {
	vs           *judgment.SceneJudgment
	ruleStock    *judgment.SceneJudgment
	ruleTime     *judgment.SceneJudgment
	ruleStamina  *judgment.SceneJudgment
	buf          *framebuffer.FrameBuffer
	ocrEngine    *ocr.Engine
}

func NewHamVsSpamRecognizer(resourceDir, langDir string, buf *framebuffer.FrameBuffer) (*HamVsSpamRecognizer, error) {
	vs, err := judgment.Load(langDir+"/vs_color.png", langDir+"/vs_mask.png")
	if err != nil {
		return nil, err
	}

	ruleStock, err := judgment.Load(resourceDir+"/rule_stock_color.png", resourceDir+"/rule_stock_mask.png")
	if err != nil {
		return nil, err
	}
	ruleStock.SetBorder(0.985)

	ruleTime, err := judgment.Load(resourceDir+"/rule_time_color.png", resourceDir+"/rule_time_mask.png")
	if err != nil {
		return nil, err
	}
	ruleTime.SetBorder(0.985)

	ruleStamina, err := judgment.Load(resourceDir+"/rule_hp_color.png", resourceDir+"/rule_hp_mask.png")
	if err != nil {
		return nil, err
	}
	ruleStamina.SetBorder(0.985)

	return &HamVsSpamRecognizer{
		vs:          vs,
		ruleStock:   ruleStock,
		ruleTime:    ruleTime,
		ruleStamina: ruleStamina,
		buf:         buf,
		ocrEngine:   ocr.New(),
	}, nil
}

func (r *HamVsSpamRecognizer) ContinueMatch(current State) bool {
	return current == Matching
}

func (r *HamVsSpamRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	if acc != nil && acc.AllDecidedCharacterName() {
		return false, nil
	}

	if err := r.vs.MatchAgainst(frame); err != nil {
		return false, err
	}
	if !r.vs.IsNearMatch() {
		return false, nil
	}

	if err := r.buf.StartByTime(2500 * time.Millisecond); err != nil {
		return true, nil
	}
	r.buf.Push(frame)
	return true, nil
}

func (r *HamVsSpamRecognizer) ToScene(current State) State { return HamVsSpam }

func (r *HamVsSpamRecognizer) RecordingScene(frame gocv.Mat) error {
	return r.buf.Push(frame)
}

func (r *HamVsSpamRecognizer) IsRecorded() bool { return r.buf.IsFilled() }

func (r *HamVsSpamRecognizer) DetectData(acc *battle.Accumulator) error {
	_, err := r.buf.Replay(func(frame gocv.Mat) (bool, error) {
		r.capturedRules(frame, acc)
		r.capturedCharacterName(frame, acc)
		return false, nil
	})
	return err
}

var digitRe = regexp.MustCompile(`\d+`)
var wordRe = regexp.MustCompile(`[A-Za-z]+`)

func (r *HamVsSpamRecognizer) capturedRules(frame gocv.Mat, acc *battle.Accumulator) {
	if acc.Data().Rule == battle.RuleTournament {
		return
	}

	if acc.Data().Rule == battle.RuleUnknown {
		if err := r.ruleStock.MatchAgainst(frame); err == nil && r.ruleStock.IsNearMatch() {
			acc.SetRule(battle.RuleStock)
		} else if err := r.ruleTime.MatchAgainst(frame); err == nil && r.ruleTime.IsNearMatch() {
			acc.SetRule(battle.RuleTime)
		} else if err := r.ruleStamina.MatchAgainst(frame); err == nil && r.ruleStamina.IsNearMatch() {
			acc.SetRule(battle.RuleStamina)
		}
	}

	switch acc.Data().Rule {
	case battle.RuleTime:
		minuteArea := frame.Region(image.Rect(313, 332, 323, 352))
		secArea := frame.Region(image.Rect(325, 332, 343, 352))
		r.capturedTimeWithSec(minuteArea, secArea, acc)
		minuteArea.Close()
		secArea.Close()
	case battle.RuleStock:
		timeArea := frame.Region(image.Rect(274, 332, 285, 352))
		stockArea := frame.Region(image.Rect(358, 332, 369, 352))
		r.capturedTime(timeArea, acc)
		r.capturedMaxStock(stockArea, acc)
		timeArea.Close()
		stockArea.Close()
	case battle.RuleStamina:
		timeArea := frame.Region(image.Rect(241, 332, 252, 352))
		stockArea := frame.Region(image.Rect(324, 332, 335, 352))
		hpArea := frame.Region(image.Rect(380, 332, 398, 352))
		r.capturedTime(timeArea, acc)
		r.capturedMaxStock(stockArea, acc)
		r.capturedMaxHP(hpArea, acc)
		timeArea.Close()
		stockArea.Close()
		hpArea.Close()
	}
}

// captureNumber runs the common threshold -> invert -> OCR pipeline
// shared by every clause-number crop, returning the first run of digits
// found, if any.
func (r *HamVsSpamRecognizer) captureNumber(area gocv.Mat) (int, bool) {
	thresholded := gocv.NewMat()
	defer thresholded.Close()
	gocv.Threshold(area, &thresholded, 100, 255, gocv.ThresholdBinary)

	gray := gocv.NewMat()
	defer gray.Close()
	judgment.ColorGray.ConvertTo(&thresholded, &gray)

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(gray, &inverted)

	text, err := r.ocrEngine.Recognize(context.Background(), inverted, ocr.ModeDigits)
	if err != nil {
		return 0, false
	}
	match := digitRe.FindString(text)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (r *HamVsSpamRecognizer) capturedTime(area gocv.Mat, acc *battle.Accumulator) {
	if minutes, ok := r.captureNumber(area); ok {
		acc.GuessMaxTimeSeconds(minutes * 60)
	}
}

func (r *HamVsSpamRecognizer) capturedTimeWithSec(minuteArea, secArea gocv.Mat, acc *battle.Accumulator) {
	minutes, ok := r.captureNumber(minuteArea)
	if !ok {
		return
	}
	seconds, _ := r.captureNumber(secArea)
	acc.GuessMaxTimeSeconds(minutes*60 + seconds)
}

func (r *HamVsSpamRecognizer) capturedMaxStock(area gocv.Mat, acc *battle.Accumulator) {
	stock, ok := r.captureNumber(area)
	if !ok {
		return
	}
	for player := 0; player < acc.Data().PlayerCount; player++ {
		acc.GuessMaxStock(player, stock)
	}
}

func (r *HamVsSpamRecognizer) capturedMaxHP(area gocv.Mat, acc *battle.Accumulator) {
	hp, ok := r.captureNumber(area)
	if !ok {
		return
	}
	for player := 0; player < acc.Data().PlayerCount; player++ {
		acc.GuessMaxHP(player, hp*10)
	}
}

// capturedCharacterName reads each player's character name from the
// "character VS character" splash. The name band excludes the "1P"/"2P"
// etc. badge at the left edge of each player's column and is kept short
// vertically since a thunderbolt effect can resolve to a false
// character-sized black rectangle lower in the frame.
func (r *HamVsSpamRecognizer) capturedCharacterName(frame gocv.Mat, acc *battle.Accumulator) {
	if acc.AllDecidedCharacterName() {
		return
	}

	gray := gocv.NewMat()
	defer gray.Close()
	judgment.ColorGray.ConvertTo(&frame, &gray)

	thresholded := gocv.NewMat()
	defer thresholded.Close()
	gocv.Threshold(gray, &thresholded, 200, 255, gocv.ThresholdBinary)

	inverted := gocv.NewMat()
	defer inverted.Close()
	gocv.BitwiseNot(thresholded, &inverted)

	width, height := frame.Cols(), frame.Rows()
	playerAreaWidth := width / acc.Data().PlayerCount

	for player := 0; player < acc.Data().PlayerCount; player++ {
		if acc.IsDecidedCharacterName(player) {
			continue
		}

		area := image.Rect(
			playerAreaWidth*player+30, 0,
			playerAreaWidth*player+30+(playerAreaWidth-20-30), height/7,
		)
		nameArea := inverted.Region(area)
		grayNameArea := thresholded.Region(area)

		opts := imgutil.DefaultTrimOptions()
		opts.Margin = 5
		trimmed := imgutil.TrimToContours(nameArea, grayNameArea, opts)

		rgb := gocv.NewMat()
		judgment.ColorRGB.ConvertTo(&trimmed, &rgb)

		text, err := r.ocrEngine.Recognize(context.Background(), rgb, ocr.ModeUpperAlpha)
		rgb.Close()
		trimmed.Close()
		nameArea.Close()
		grayNameArea.Close()
		if err != nil {
			continue
		}

		name := wordRe.FindString(strings.ToLower(text))
		if name == "" {
			continue
		}
		acc.GuessCharacterName(player, name)
	}
}
