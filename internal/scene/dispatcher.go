package scene

import (
	"log"
	"time"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/metrics"
)

// Dispatcher walks the scene recognizers against one captured frame per
// tick. Loading is checked first and, on a match, short-circuits the
// rest of the tick entirely: the loading spinner can interrupt any
// scene without actually advancing the state graph. Otherwise the
// recognizer that owns the current steady state (if any) gets a chance
// to buffer this frame and, once its buffer fills, extract whatever
// data it accumulated; then every recognizer is tried in a fixed order,
// and the first one whose ContinueMatch/IsScene both succeed decides the
// next state.
//
// The fixed order mirrors the state graph's actual fan-in: Dialog only
// follows Result, ReadyToFight can follow almost anything, Matching
// follows Unknown/ReadyToFight/GameEnd/Result, and so on down the
// battle's natural progression.
type Dispatcher struct {
	current State

	loading *LoadingRecognizer
	order   []Recognizer
	owner   map[State]Recognizer

	acc *battle.Accumulator

	// onBattleEnd, if set, is called with the finished battle's data the
	// moment the state graph leaves Result for anything else. Wiring a
	// persistence layer (or a broadcast push) happens through this hook
	// rather than giving Dispatcher a dependency on how battles are
	// stored or served.
	onBattleEnd func(battle.BattleData)
}

// NewDispatcher wires the nine recognizers into their fixed dispatch
// order and binds the two that buffer frames (HamVsSpam, Result) to the
// steady state they own, so their RecordingScene/DetectData get called
// every tick that state holds.
func NewDispatcher(
	loading *LoadingRecognizer,
	dialog Recognizer,
	readyToFight Recognizer,
	matching Recognizer,
	hamVsSpam Recognizer,
	gameStart Recognizer,
	gamePlaying Recognizer,
	gameEnd Recognizer,
	result Recognizer,
	acc *battle.Accumulator,
) *Dispatcher {
	return &Dispatcher{
		loading: loading,
		order: []Recognizer{
			dialog, readyToFight, matching, hamVsSpam, gameStart, gamePlaying, gameEnd, result,
		},
		owner: map[State]Recognizer{
			HamVsSpam: hamVsSpam,
			Result:    result,
		},
		acc: acc,
	}
}

// State returns the dispatcher's current recognized scene.
func (d *Dispatcher) State() State { return d.current }

// SetOnBattleEnd registers fn to be called once, with the finalized
// BattleData, each time the dispatcher leaves the Result scene.
func (d *Dispatcher) SetOnBattleEnd(fn func(battle.BattleData)) {
	d.onBattleEnd = fn
}

// Tick feeds one captured frame through the dispatcher.
func (d *Dispatcher) Tick(frame gocv.Mat) error {
	start := time.Now()
	defer func() { metrics.RecordTick(time.Since(start)) }()

	if d.loading != nil {
		isLoading, err := d.loading.IsScene(frame, d.acc)
		if err != nil {
			return err
		}
		if isLoading {
			return nil
		}
	}

	if owner, ok := d.owner[d.current]; ok {
		if err := owner.RecordingScene(frame); err != nil {
			return err
		}
		if owner.IsRecorded() {
			if err := owner.DetectData(d.acc); err != nil {
				return err
			}
		}
	}

	for _, rec := range d.order {
		if !rec.ContinueMatch(d.current) {
			continue
		}
		matchStart := time.Now()
		matched, err := rec.IsScene(frame, d.acc)
		metrics.RecordRecognizerMatch(d.current.String(), time.Since(matchStart))
		if err != nil {
			return err
		}
		if !matched {
			continue
		}

		next := rec.ToScene(d.current)
		if next != d.current {
			log.Printf("scene: %s -> %s", d.current, next)
			metrics.RecordSceneTransition(d.current.String(), next.String())
			if d.current == Result && d.onBattleEnd != nil {
				d.acc.EndBattle(time.Now())
				d.onBattleEnd(*d.acc.Data())
			}
			d.current = next
		}
		break
	}

	return nil
}
