package battle

import (
	"strings"
	"time"

	"smabrog/internal/catalog"
)

// confidenceFloor is the minimum confidence an implausible observation can
// drive a guess down to; below this point further bad observations are
// simply ignored rather than eroding the value to nothing.
const confidenceFloor = 0.1

// characterConfirmRatio is the similarity ratio above which a repeated
// observation of the currently-stored character nudges its confidence up
// instead of being treated as a fresh candidate.
const characterConfirmRatio = 0.87

// characterConfirmStep multiplies stored confidence on a near-match repeat;
// three repeats at ratio > 0.87 cross the 1.0 confirmation threshold.
const characterConfirmStep = 1.05

const orderStep = 0.31
const powerStep = 0.11

// Accumulator folds noisy per-frame observations from the scene
// recognizers into a single BattleData for the battle currently in
// progress. It holds no reference to frames, templates, or OCR; it is
// driven entirely by guess_* calls with already-extracted values.
type Accumulator struct {
	catalog catalog.Catalog
	data    BattleData
}

// NewAccumulator builds an accumulator against the given character/BGM
// catalog, used for name normalization in GuessCharacterName.
func NewAccumulator(cat catalog.Catalog) *Accumulator {
	return &Accumulator{catalog: cat}
}

// Data returns the battle currently being accumulated.
func (a *Accumulator) Data() *BattleData {
	return &a.data
}

// InitializeBattle (re)starts tracking for a battle with the given player
// count. A repeat call while no player's character has been confirmed yet
// is a no-op, matching the upstream idempotence contract: the dispatcher
// may call this every tick while Matching holds, and only a genuinely new
// battle (previous one's character already confirmed, or none ever
// started) causes a reset.
func (a *Accumulator) InitializeBattle(playerCount int, now time.Time) {
	if a.data.freshlyInitialized() {
		return
	}

	a.data = BattleData{
		PlayerCount: playerCount,
		Rule:        RuleUnknown,
		StartTime:   now,
		Players:     make([]PlayerData, playerCount),
	}
	for i := range a.data.Players {
		a.data.Players[i] = PlayerData{
			Character: Guess[string]{Value: CharacterUnknown},
			MaxStock:  -1,
			MaxHP:     Guess[int]{Value: -1},
			Stock:     Guess[int]{Value: -1},
			Order:     Guess[int]{Value: -1},
			Power:     Guess[int]{Value: -1},
		}
	}
}

// EndBattle records the battle's end time, after which IsPlayingBattle
// reports false.
func (a *Accumulator) EndBattle(now time.Time) {
	a.data.EndTime = now
}

// IsPlayingBattle reports whether the tracked battle is currently active.
func (a *Accumulator) IsPlayingBattle(now time.Time) bool {
	return a.data.IsPlayingBattle(now)
}

// SetRule sets the battle's rule variant once, at HamVsSpam time. It does
// not overwrite an already-set rule (Tournament in particular is set at
// Matching time and must survive HamVsSpam's own clause detection).
func (a *Accumulator) SetRule(rule Rule) {
	if a.data.Rule == RuleUnknown {
		a.data.Rule = rule
	}
}

// GuessMaxTimeSeconds folds a first-plausible-wins observation for the
// battle's time limit. Once set it is never overwritten.
func (a *Accumulator) GuessMaxTimeSeconds(seconds int) {
	if a.data.MaxTimeSeconds.Confidence >= 1.0 {
		return
	}
	if seconds <= 0 {
		return
	}
	a.data.MaxTimeSeconds = Guess[int]{Value: seconds, Confidence: 1.0}
}

// GuessBGMName folds a first-plausible-wins observation for the BGM title.
func (a *Accumulator) GuessBGMName(name string) {
	if a.data.BGMName.Confidence >= 1.0 {
		return
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	a.data.BGMName = Guess[string]{Value: name, Confidence: 1.0}
}

// GuessMaxHP folds a first-plausible-wins observation for one player's HP
// limit (Stamina rule clause).
func (a *Accumulator) GuessMaxHP(player int, hp int) {
	p := &a.data.Players[player]
	if p.MaxHP.Confidence >= 1.0 {
		return
	}
	if hp <= 0 {
		return
	}
	p.MaxHP = Guess[int]{Value: hp, Confidence: 1.0}
}

// GuessCharacterName folds one OCR observation of a player's character
// name. An exact match against a known canonical name or one of its
// localized synonyms confirms immediately. Otherwise the candidate with
// the highest string-similarity ratio against every known name is
// adopted; if that candidate is the name already stored and the ratio
// clears characterConfirmRatio, the existing confidence is nudged up by
// characterConfirmStep instead of being replaced.
func (a *Accumulator) GuessCharacterName(player int, observed string) {
	p := &a.data.Players[player]
	if p.Character.Confidence >= 1.0 {
		return
	}

	if canonical, ok := a.catalog.CanonicalCharacterName(observed); ok {
		p.Character = Guess[string]{Value: canonical, Confidence: 1.0}
		return
	}

	maxRatio := p.Character.Confidence
	for _, name := range a.catalog.CharacterNames() {
		ratio := similarityRatio(name, observed)
		if maxRatio < ratio {
			maxRatio = ratio
			p.Character = Guess[string]{Value: name, Confidence: maxRatio}
			if maxRatio >= 1.0 {
				return
			}
		} else if ratio > characterConfirmRatio && name == p.Character.Value {
			p.Character.Confidence *= characterConfirmStep
			return
		}
	}
}

// GuessStock folds one stock-count reading for a player. The first
// observation for a player seeds both the stored value (confidence 1.0)
// and that player's max stock; once every player has a seeded max stock,
// all players' max stocks are replaced by the group maximum (the
// rule-imposed starting stock count for every player in a standard
// stock match).
//
// Subsequent observations: an implausible reading (negative, or greater
// than the value already stored) halves confidence down to
// confidenceFloor. A reading equal to stored-1 is accepted, since stocks
// only ever decrement.
func (a *Accumulator) GuessStock(player int, observed int) {
	p := &a.data.Players[player]
	if p.Stock.Value == observed {
		return
	}

	if p.Stock.Value == -1 {
		p.Stock = Guess[int]{Value: observed, Confidence: 1.0}
		if p.MaxStock == -1 {
			p.MaxStock = observed
			a.maybeSeedGroupMaxStock()
		}
	}

	switch {
	case observed < 0 || p.Stock.Value < observed:
		if p.Stock.Confidence > confidenceFloor {
			p.Stock.Confidence /= 2.0
		}
	case observed == p.Stock.Value-1:
		p.Stock.Value = observed
	}
}

// maybeSeedGroupMaxStock replaces every player's individually-seeded max
// stock with the group maximum once all players have seeded one. This
// resolves the "all players share the starting stock count" intent:
// in a standard stock match every player starts with the same number of
// stocks, and a per-player max that hasn't actually been observed yet
// (a player who never dropped a stock before the reading) should still
// read the shared value rather than -1 or its own first reading alone.
func (a *Accumulator) maybeSeedGroupMaxStock() {
	for _, p := range a.data.Players {
		if p.MaxStock <= 0 {
			return
		}
	}
	maxStock := 0
	for _, p := range a.data.Players {
		if p.MaxStock > maxStock {
			maxStock = p.MaxStock
		}
	}
	for i := range a.data.Players {
		a.data.Players[i].MaxStock = maxStock
	}
}

// GuessMaxStock folds a rule-clause reading of the starting stock count
// shown under a player's character icon before battle starts, distinct
// from GuessStock's in-HUD reading during play. Ignored once a max stock
// is already seeded for this player, since the rule clause is shown
// identically to every player and only needs to be read once.
func (a *Accumulator) GuessMaxStock(player int, value int) {
	p := &a.data.Players[player]
	if p.MaxStock != -1 || value <= 0 {
		return
	}
	p.MaxStock = value
	a.maybeSeedGroupMaxStock()
}

// AllDecidedRuleClauses reports whether every clause relevant to the
// currently-set rule has a plausible reading, so the (expensive)
// per-frame rule-clause OCR can stop once satisfied.
func (a *Accumulator) AllDecidedRuleClauses() bool {
	switch a.data.Rule {
	case RuleTime:
		return a.data.MaxTimeSeconds.Confidence >= 1.0
	case RuleStock:
		for _, p := range a.data.Players {
			if p.MaxStock <= 0 {
				return false
			}
		}
		return true
	case RuleStamina:
		for _, p := range a.data.Players {
			if p.MaxStock <= 0 || p.MaxHP.Confidence < 1.0 {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// IsDecidedStock reports whether a player's stock count can no longer
// change: stock count 1 is terminal (0 always follows GameEnd, never a
// further tick of GamePlaying).
func (a *Accumulator) IsDecidedStock(player int) bool {
	return a.data.Players[player].Stock.Value == 1
}

// AllDecidedStock reports whether every player's stock is decided.
func (a *Accumulator) AllDecidedStock() bool {
	for i := range a.data.Players {
		if !a.IsDecidedStock(i) {
			return false
		}
	}
	return true
}

// GuessOrder folds one placement-badge reading for a player. The
// reference order is derived from stock counts: a player's rank is one
// plus the number of players with a strictly lower stock. Agreement
// between observed and reference nudges confidence by +orderStep on a
// fresh guess it gets set outright at 1.0 on first agreement, then
// further repeats add/subtract orderStep; disagreement subtracts it
// without a floor. In a 2-player battle, reaching full confidence also
// force-sets the opponent's order (the only two possible placements are
// fully determined by one player's).
func (a *Accumulator) GuessOrder(player int, observed int) {
	p := &a.data.Players[player]
	if p.Order.Confidence >= 1.0 {
		return
	}

	reference := a.referenceOrder(player)
	if p.Order.Value == -1 {
		if observed == reference {
			p.Order = Guess[int]{Value: observed, Confidence: 1.0}
		} else {
			p.Order = Guess[int]{Value: observed, Confidence: confidenceFloor}
		}
	} else if observed == reference {
		p.Order.Confidence += orderStep
	} else {
		p.Order.Confidence -= orderStep
	}

	if p.Order.Confidence >= 1.0 && a.data.PlayerCount == 2 {
		other := a.data.PlayerCount - 1 - player
		otherOrder := a.data.PlayerCount - (observed - 1)
		a.data.Players[other].Order = Guess[int]{Value: otherOrder, Confidence: 1.0}
	}
}

// referenceOrder computes a player's rank from currently stored stocks:
// one plus the count of players whose stock is strictly lower.
func (a *Accumulator) referenceOrder(player int) int {
	playerStock := a.data.Players[player].Stock.Value
	under := 0
	for _, p := range a.data.Players {
		if p.Stock.Value < playerStock {
			under++
		}
	}
	return a.data.PlayerCount - under
}

// IsDecidedOrder reports whether a player's order has been confirmed.
func (a *Accumulator) IsDecidedOrder(player int) bool {
	return a.data.Players[player].Order.Confidence >= 1.0
}

// AllDecidedOrder reports whether every player's order is decided.
func (a *Accumulator) AllDecidedOrder() bool {
	for i := range a.data.Players {
		if !a.IsDecidedOrder(i) {
			return false
		}
	}
	return true
}

// GuessPower folds one power-score reading. Readings below 10 are
// ignored (too small to be a real score, usually OCR noise from a
// partially-rendered digit). A reading equal to the stored value nudges
// confidence by +powerStep (five matches confirm); otherwise, if the
// stored value is unset or the difference is within 10% of it, the
// stored value is replaced and confidence reset to 0.5 (the animated
// power counter is expected to pass through several distinct readings
// before settling).
func (a *Accumulator) GuessPower(player int, observed int) {
	p := &a.data.Players[player]
	if p.Power.Confidence >= 1.0 || observed < 10 {
		return
	}

	diff := p.Power.Value - observed
	if diff < 0 {
		diff = -diff
	}

	switch {
	case p.Power.Value == observed && p.Power.Value >= 0:
		p.Power.Confidence += powerStep
	case p.Power.Value == -1 || diff < p.Power.Value/10:
		p.Power = Guess[int]{Value: observed, Confidence: 0.5}
	}
}

// IsDecidedPower reports whether a player's power score is confirmed.
func (a *Accumulator) IsDecidedPower(player int) bool {
	return a.data.Players[player].Power.Confidence >= 1.0
}

// AllDecidedPower reports whether every player's power score is decided.
func (a *Accumulator) AllDecidedPower() bool {
	for i := range a.data.Players {
		if !a.IsDecidedPower(i) {
			return false
		}
	}
	return true
}

// AllDecidedResult reports whether the battle's final result (power and
// order for every player) is fully determined.
func (a *Accumulator) AllDecidedResult() bool {
	return a.AllDecidedPower() && a.AllDecidedOrder()
}

// IsDecidedCharacterName reports whether a player's character is confirmed.
func (a *Accumulator) IsDecidedCharacterName(player int) bool {
	return a.data.Players[player].Character.Confidence >= 1.0
}

// AllDecidedCharacterName reports whether every player's character is
// confirmed.
func (a *Accumulator) AllDecidedCharacterName() bool {
	for _, p := range a.data.Players {
		if p.Character.Confidence < 1.0 {
			return false
		}
	}
	return true
}
