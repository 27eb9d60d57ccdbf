package scene

import (
	"fmt"

	"gocv.io/x/gocv"

	"smabrog/internal/battle"
	"smabrog/internal/framebuffer"
	"smabrog/internal/judgment"
)

// BuildDispatcher constructs every recognizer and wires them into a
// fresh Dispatcher rooted at resourceDir for language-independent
// templates and langDir for localized ones (BGM title OCR, "GAME SET"/
// "TIME UP" banners, character name text). Each buffered recognizer
// gets its own FrameBuffer over a codec probed under resourceDir, so a
// Reload never shares a writer/reader pair with the dispatcher it
// replaces.
func BuildDispatcher(resourceDir, langDir string, acc *battle.Accumulator) (*Dispatcher, error) {
	loading, err := NewLoadingRecognizer(resourceDir)
	if err != nil {
		return nil, fmt.Errorf("scene: loading recognizer: %w", err)
	}
	dialog, err := NewDialogRecognizer(resourceDir)
	if err != nil {
		return nil, fmt.Errorf("scene: dialog recognizer: %w", err)
	}
	readyToFight, err := NewReadyToFightRecognizer(resourceDir)
	if err != nil {
		return nil, fmt.Errorf("scene: ready_to_fight recognizer: %w", err)
	}
	matching, err := NewMatchingRecognizer(resourceDir, langDir)
	if err != nil {
		return nil, fmt.Errorf("scene: matching recognizer: %w", err)
	}

	hamVsSpamCodec, err := framebuffer.FindCodec(resourceDir + "/buffer_ham_vs_spam")
	if err != nil {
		return nil, fmt.Errorf("scene: ham_vs_spam codec: %w", err)
	}
	hamVsSpam, err := NewHamVsSpamRecognizer(resourceDir, langDir, framebuffer.New(hamVsSpamCodec))
	if err != nil {
		return nil, fmt.Errorf("scene: ham_vs_spam recognizer: %w", err)
	}

	gameStart, err := NewGameStartRecognizer(resourceDir)
	if err != nil {
		return nil, fmt.Errorf("scene: game_start recognizer: %w", err)
	}
	gamePlaying, err := NewGamePlayingRecognizer(resourceDir)
	if err != nil {
		return nil, fmt.Errorf("scene: game_playing recognizer: %w", err)
	}
	gameEnd, err := NewGameEndRecognizer(langDir)
	if err != nil {
		return nil, fmt.Errorf("scene: game_end recognizer: %w", err)
	}

	resultCodec, err := framebuffer.FindCodec(resourceDir + "/buffer_result")
	if err != nil {
		return nil, fmt.Errorf("scene: result codec: %w", err)
	}
	result, err := NewResultRecognizer(resourceDir, langDir, framebuffer.New(resultCodec))
	if err != nil {
		return nil, fmt.Errorf("scene: result recognizer: %w", err)
	}

	return NewDispatcher(loading, dialog, readyToFight, matching, hamVsSpam, gameStart, gamePlaying, gameEnd, result, acc), nil
}

// Pipeline owns the live Dispatcher and lets the active language be
// swapped without losing in-flight ticks: Tick always runs against
// whichever Dispatcher was current at the moment it was called, and
// Reload only ever replaces the pointer other callers read next.
type Pipeline struct {
	resourceDir string
	acc         *battle.Accumulator
	onBattleEnd func(battle.BattleData)
	set         *judgment.TemplateSet[*Dispatcher]
}

// NewPipeline builds the initial Dispatcher for langDir. onBattleEnd may
// be nil; when set, it's wired into every Dispatcher this Pipeline ever
// builds, including the ones Reload produces.
func NewPipeline(resourceDir, langDir string, acc *battle.Accumulator, onBattleEnd func(battle.BattleData)) (*Pipeline, error) {
	p := &Pipeline{resourceDir: resourceDir, acc: acc, onBattleEnd: onBattleEnd}
	set, err := judgment.NewTemplateSet(langDir, p.build)
	if err != nil {
		return nil, err
	}
	p.set = set
	return p, nil
}

func (p *Pipeline) build(langDir string) (*Dispatcher, error) {
	d, err := BuildDispatcher(p.resourceDir, langDir, p.acc)
	if err != nil {
		return nil, err
	}
	if p.onBattleEnd != nil {
		d.SetOnBattleEnd(p.onBattleEnd)
	}
	return d, nil
}

// Tick feeds one frame through the currently active Dispatcher.
func (p *Pipeline) Tick(frame gocv.Mat) error {
	return p.set.Current().Tick(frame)
}

// State returns the active Dispatcher's current scene.
func (p *Pipeline) State() State {
	return p.set.Current().State()
}

// Reload rebuilds every template for langDir and swaps the Dispatcher in
// atomically, matching spec's "Localized templates are rebuilt
// atomically" contract for a capture-time language change.
func (p *Pipeline) Reload(langDir string) error {
	_, err := p.set.Reload(langDir)
	return err
}
