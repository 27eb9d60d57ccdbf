package battle

import (
	"testing"
	"time"

	"smabrog/internal/catalog"
)

func testCatalog() catalog.Catalog {
	c, err := catalog.Load("testdata/catalog.json")
	if err != nil {
		panic(err)
	}
	return c
}

func TestInitializeBattleIdempotent(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	now := time.Now()

	acc.InitializeBattle(2, now)
	start := acc.Data().StartTime
	acc.InitializeBattle(2, now.Add(time.Second))

	if acc.Data().StartTime != start {
		t.Fatalf("re-initializing an untouched battle reset start time")
	}
	if len(acc.Data().Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(acc.Data().Players))
	}
}

func TestInitializeBattleResetsAfterConfirmedCharacter(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	now := time.Now()

	acc.InitializeBattle(2, now)
	acc.GuessCharacterName(0, "mario")

	later := now.Add(time.Minute)
	acc.InitializeBattle(2, later)

	if acc.Data().StartTime != later {
		t.Fatalf("expected battle to reset once a player's character was confirmed")
	}
	if acc.Data().Players[0].Character.Value != CharacterUnknown {
		t.Fatalf("expected fresh battle to reset character to unknown")
	}
}

func TestIsPlayingBattle(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	now := time.Now()

	if acc.IsPlayingBattle(now) {
		t.Fatalf("uninitialized battle should not be playing")
	}

	acc.InitializeBattle(2, now)
	if !acc.IsPlayingBattle(now.Add(time.Second)) {
		t.Fatalf("expected battle in progress after initialization")
	}

	acc.EndBattle(now.Add(2 * time.Second))
	if acc.IsPlayingBattle(now.Add(3 * time.Second)) {
		t.Fatalf("expected battle to have ended")
	}
	if !acc.IsPlayingBattle(now.Add(time.Millisecond)) {
		t.Fatalf("expected battle still playing just before end time")
	}
}

func TestGuessStockSequenceConfirmsAtOne(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	acc.InitializeBattle(2, time.Now())

	for _, s := range []int{3, 2, 1, 0} {
		acc.GuessStock(0, s)
	}

	if !acc.IsDecidedStock(0) {
		t.Fatalf("expected stock to be decided at 1")
	}
	if acc.Data().Players[0].Stock.Value != 1 {
		t.Fatalf("expected stock value to stick at 1, got %d", acc.Data().Players[0].Stock.Value)
	}
}

func TestGuessStockRejectsRegression(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	acc.InitializeBattle(2, time.Now())

	acc.GuessStock(0, 3)
	acc.GuessStock(0, 2)
	acc.GuessStock(0, 1)

	conf := acc.Data().Players[0].Stock.Confidence
	acc.GuessStock(0, 2) // regression: stored is 1, observed is greater

	if acc.Data().Players[0].Stock.Value != 1 {
		t.Fatalf("regression must not move stored stock, got %d", acc.Data().Players[0].Stock.Value)
	}
	if acc.Data().Players[0].Stock.Confidence > conf {
		t.Fatalf("regression must not raise confidence")
	}
}

func TestGuessStockSeedsGroupMaximum(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	acc.InitializeBattle(2, time.Now())

	acc.GuessStock(0, 2)
	acc.GuessStock(1, 3)

	for i, p := range acc.Data().Players {
		if p.MaxStock != 3 {
			t.Fatalf("player %d: expected group max stock 3, got %d", i, p.MaxStock)
		}
	}
}

func TestGuessCharacterNameConfirmsOnRepeatedNearMatch(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	acc.InitializeBattle(1, time.Now())

	for i := 0; i < 3; i++ {
		acc.GuessCharacterName(0, "marios")
	}

	if acc.Data().Players[0].Character.Value != "mario" {
		t.Fatalf("expected mario, got %q", acc.Data().Players[0].Character.Value)
	}
	if acc.Data().Players[0].Character.Confidence < 1.0 {
		t.Fatalf("expected confirmed confidence, got %f", acc.Data().Players[0].Character.Confidence)
	}
}

func TestGuessOrderForceSetsOpponentInTwoPlayerBattle(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	acc.InitializeBattle(2, time.Now())

	acc.GuessStock(0, 0)
	acc.GuessStock(1, 1)

	acc.GuessOrder(1, 1)

	if !acc.IsDecidedOrder(1) {
		t.Fatalf("expected player 1 order decided")
	}
	if !acc.IsDecidedOrder(0) {
		t.Fatalf("expected player 0 order force-set by the 2-player shortcut")
	}
	if acc.Data().Players[0].Order.Value != 2 {
		t.Fatalf("expected opponent order 2, got %d", acc.Data().Players[0].Order.Value)
	}
}

func TestGuessPowerConfirmsOnRepeatedMatch(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	acc.InitializeBattle(1, time.Now())

	acc.GuessPower(0, 9500000)
	for i := 0; i < 5; i++ {
		acc.GuessPower(0, 9500000)
	}

	if !acc.IsDecidedPower(0) {
		t.Fatalf("expected power decided after repeated matches")
	}
	if acc.Data().Players[0].Power.Value != 9500000 {
		t.Fatalf("expected stored power 9500000, got %d", acc.Data().Players[0].Power.Value)
	}
}

func TestGuessPowerIgnoresSmallReadings(t *testing.T) {
	acc := NewAccumulator(testCatalog())
	acc.InitializeBattle(1, time.Now())

	acc.GuessPower(0, 5)

	if acc.Data().Players[0].Power.Value != -1 {
		t.Fatalf("expected small reading to be ignored, got %d", acc.Data().Players[0].Power.Value)
	}
}
