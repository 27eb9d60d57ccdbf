package store

import (
	"testing"
	"time"

	"smabrog/internal/battle"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func finishedBattle(character string, end time.Time) battle.BattleData {
	return battle.BattleData{
		PlayerCount: 2,
		Rule:        battle.RuleStock,
		Players: []battle.PlayerData{
			{Character: battle.Guess[string]{Value: character, Confidence: 1}},
			{Character: battle.Guess[string]{Value: "unknown", Confidence: 1}},
		},
		StartTime: end.Add(-2 * time.Minute),
		EndTime:   end,
	}
}

func TestSaveRejectsInProgressBattle(t *testing.T) {
	s := newTestStore(t)
	if err := s.Save(battle.BattleData{PlayerCount: 2}); err == nil {
		t.Fatalf("expected Save to reject a battle with a zero EndTime")
	}
}

func TestLastNOrdersMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		b := finishedBattle("mario", base.Add(time.Duration(i)*time.Hour))
		if err := s.Save(b); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.LastN(2)
	if err != nil {
		t.Fatalf("LastN: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 battles, got %d", len(got))
	}
	if !got[0].EndTime.Equal(base.Add(2 * time.Hour)) {
		t.Fatalf("expected most recent battle first, got end time %v", got[0].EndTime)
	}
}

func TestLastNWithCharactersFilters(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := s.Save(finishedBattle("mario", base)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(finishedBattle("pikachu", base.Add(time.Hour))); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.LastNWithCharacters([]string{"pikachu"}, 10)
	if err != nil {
		t.Fatalf("LastNWithCharacters: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 matching battle, got %d", len(got))
	}
	if got[0].Players[0].Character.Value != "pikachu" {
		t.Fatalf("expected pikachu match, got %+v", got[0].Players)
	}
}

func TestLastNWithCharactersRequiresEveryName(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if err := s.Save(finishedBattle("mario", base)); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := s.LastNWithCharacters([]string{"mario", "pikachu"}, 10)
	if err != nil {
		t.Fatalf("LastNWithCharacters: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no match when a requested character never played, got %d", len(got))
	}
}
