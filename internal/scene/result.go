package scene

import (
	"context"
	"fmt"
	"image"
	"regexp"
	"strconv"
	"time"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/framebuffer"
	"smabrog/internal/imgutil"
	"smabrog/internal/judgment"
	"smabrog/internal/ocr"
)

// orderAreaPos gives the placement-badge crop origin for each player
// slot, indexed by [playerCount/2-1][playerNumber]. Only the 2p and 4p
// rows are populated; the original never supported other player counts
// either.
var orderAreaPos = [2][4]image.Point{
	{{X: 205, Y: 4}, {X: 470, Y: 4}, {}, {}},
	{{X: 90, Y: 0}, {X: 250, Y: 0}, {X: 420, Y: 0}, {X: 580, Y: 0}},
}

// ResultRecognizer detects the post-battle results screen via its
// countdown timer, then buffers 3s of frames from which it extracts
// every player's placement badge and power score. The placement-badge
// buffer restarts (from frame zero) the instant one of the order
// templates starts matching, so the eventual replay always contains the
// frame the badges were readable in, not just whatever was captured
// first.
type ResultRecognizer struct {
	orderJudgments []*judgment.SceneJudgment
	countDown      *judgment.SceneJudgment
	retryBattle    *judgment.SceneJudgment
	powerMask      gocv.Mat
	buf            *framebuffer.FrameBuffer
	ocrEngine      *ocr.Engine
}

func NewResultRecognizer(resourceDir, langDir string, buf *framebuffer.FrameBuffer) (*ResultRecognizer, error) {
	orderJudgments := make([]*judgment.SceneJudgment, 0, 4)
	for player := 1; player <= 4; player++ {
		path := fmt.Sprintf("%s/result_player_order_%d_", resourceDir, player)
		j, err := judgment.LoadTrans(path+"color.png", path+"mask.png")
		if err != nil {
			return nil, err
		}
		j.SetBorder(0.985)
		orderJudgments = append(orderJudgments, j)
	}

	countDown, err := judgment.Load(resourceDir+"/result_time_color.png", resourceDir+"/result_time_mask.png")
	if err != nil {
		return nil, err
	}
	countDown.SetBorder(0.90)

	retryBattle, err := judgment.Load(resourceDir+"/battle_retry_color.png", resourceDir+"/battle_retry_mask.png")
	if err != nil {
		return nil, err
	}

	powerMask := gocv.IMReadWithParams(resourceDir+"/result_power_mask.png", gocv.IMReadGrayScale)
	if powerMask.Empty() {
		return nil, fmt.Errorf("result: empty or unreadable power mask")
	}

	return &ResultRecognizer{
		orderJudgments: orderJudgments,
		countDown:      countDown,
		retryBattle:    retryBattle,
		powerMask:      powerMask,
		buf:            buf,
		ocrEngine:      ocr.New(),
	}, nil
}

func (r *ResultRecognizer) ContinueMatch(current State) bool {
	return current == GameEnd
}

func (r *ResultRecognizer) IsScene(frame gocv.Mat, acc *battle.Accumulator) (bool, error) {
	if err := r.countDown.MatchAgainst(frame); err != nil {
		return false, err
	}
	if !r.countDown.IsNearMatch() {
		return false, nil
	}
	if acc == nil {
		return true, nil
	}
	if acc.Data().PlayerCount == 2 {
		r.resultSceneJudgment(frame, acc)
	}
	// The countdown match alone is enough to hold Result: the 4-player
	// placement/power layout was never resolved upstream either, so
	// those battles reach Result with no order/power ever folded in.
	return true, nil
}

// ToScene holds Result once entered: nothing after it transitions
// anywhere else within one tracked battle.
func (r *ResultRecognizer) ToScene(current State) State { return Result }

func (r *ResultRecognizer) resultSceneJudgment(frame gocv.Mat, acc *battle.Accumulator) {
	if acc.AllDecidedResult() {
		return
	}
	if r.buf.IsFilled() && !r.buf.IsReplayEnd() {
		return
	}

	if r.buf.State() == framebuffer.StateIdle {
		r.buf.StartByTime(3 * time.Second)
		r.buf.Push(frame)
	}

	anyOrderMatch := false
	for _, j := range r.orderJudgments {
		if j.IsNearMatch() {
			anyOrderMatch = true
			break
		}
	}
	if anyOrderMatch {
		// Restart from frame zero so the replay is anchored on the
		// frame the placement badges were actually legible in.
		r.buf.StartByTime(3 * time.Second)
		r.buf.Push(frame)
	}
}

func (r *ResultRecognizer) RecordingScene(frame gocv.Mat) error {
	if err := r.retryBattle.MatchAgainst(frame); err != nil {
		return err
	}
	if r.retryBattle.IsNearMatch() {
		// The "play the same opponent again?" dialog can appear mid
		// buffer and falsely resembles a results frame; feed a blank
		// frame instead of corrupting the buffer with it.
		blank := gocv.NewMatWithSize(frame.Rows(), frame.Cols(), frame.Type())
		defer blank.Close()
		return r.buf.Push(blank)
	}
	return r.buf.Push(frame)
}

func (r *ResultRecognizer) IsRecorded() bool { return r.buf.IsFilled() }

func (r *ResultRecognizer) DetectData(acc *battle.Accumulator) error {
	_, err := r.buf.Replay(func(frame gocv.Mat) (bool, error) {
		r.capturedOrder(frame, acc)
		r.capturedPower(frame, acc)
		return false, nil
	})
	return err
}

func (r *ResultRecognizer) capturedOrder(frame gocv.Mat, acc *battle.Accumulator) {
	playerCount := acc.Data().PlayerCount
	rowIndex := playerCount/2 - 1
	if rowIndex < 0 || rowIndex > 1 {
		return
	}

	for player := 0; player < playerCount; player++ {
		pos := orderAreaPos[rowIndex][player]
		area := frame.Region(image.Rect(pos.X, pos.Y, pos.X+80, pos.Y+80))

		for orderCount := 0; orderCount < playerCount; orderCount++ {
			j := r.orderJudgments[orderCount]
			if err := j.MatchAgainst(area); err != nil {
				continue
			}
			if j.IsNearMatch() {
				acc.GuessOrder(player, orderCount+1)
			}
		}
		area.Close()
	}
}

var powerDigitsRe = regexp.MustCompile(`[^\d]+`)

func (r *ResultRecognizer) capturedPower(frame gocv.Mat, acc *battle.Accumulator) {
	gray := gocv.NewMat()
	defer gray.Close()
	judgment.ColorGray.ConvertTo(&frame, &gray)

	masked := gocv.NewMat()
	defer masked.Close()
	gocv.BitwiseAnd(gray, r.powerMask, &masked)

	width, height := frame.Cols(), frame.Rows()
	playerAreaWidth := width / acc.Data().PlayerCount

	for player := 0; player < acc.Data().PlayerCount; player++ {
		area := image.Rect(
			playerAreaWidth*player, height/4,
			playerAreaWidth*player+playerAreaWidth, height/4+height/2,
		)
		powerArea := masked.Region(area)
		grayPowerArea := gray.Region(area)

		trimmed := imgutil.TrimToContours(powerArea, grayPowerArea, imgutil.DefaultTrimOptions())

		thresholded := gocv.NewMat()
		gocv.Threshold(trimmed, &thresholded, 200, 255, gocv.ThresholdBinary)

		numberOpts := imgutil.DefaultTrimOptions()
		numberOpts.Margin = 1
		numberOpts.MinArea = 1
		numberArea := imgutil.TrimToContours(trimmed, thresholded, numberOpts)

		rgb := gocv.NewMat()
		judgment.ColorRGB.ConvertTo(&numberArea, &rgb)

		text, err := r.ocrEngine.Recognize(context.Background(), rgb, ocr.ModeDigits)

		rgb.Close()
		numberArea.Close()
		thresholded.Close()
		trimmed.Close()
		powerArea.Close()
		grayPowerArea.Close()

		if err != nil {
			continue
		}

		digits := powerDigitsRe.ReplaceAllString(text, "")
		value, convErr := strconv.Atoi(digits)
		if convErr != nil {
			value = -1
		}
		acc.GuessPower(player, value)
	}
}
