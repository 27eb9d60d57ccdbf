package scene

import "smabrog/internal/battle"

// Tracker couples a Pipeline with the Accumulator it feeds, giving the
// API layer a single read-only view over "what is happening right now"
// without depending on gocv or any recognizer type. It implements
// internal/api.DataSource.
type Tracker struct {
	pipeline *Pipeline
	acc      *battle.Accumulator
}

// NewTracker wraps pipeline and acc for use as an api.DataSource.
func NewTracker(pipeline *Pipeline, acc *battle.Accumulator) *Tracker {
	return &Tracker{pipeline: pipeline, acc: acc}
}

// CurrentBattle returns the battle currently being tracked, whether in
// progress or finalized at EndBattle.
func (t *Tracker) CurrentBattle() battle.BattleData {
	return *t.acc.Data()
}

// CurrentScene returns the dispatcher's current scene name.
func (t *Tracker) CurrentScene() string {
	return t.pipeline.State().String()
}
