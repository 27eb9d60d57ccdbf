package scene

import "testing"

func TestStateStringNames(t *testing.T) {
	cases := map[State]string{
		Unknown:      "Unknown",
		Loading:      "Loading",
		Dialog:       "Dialog",
		ReadyToFight: "ReadyToFight",
		Matching:     "Matching",
		HamVsSpam:    "HamVsSpam",
		GameStart:    "GameStart",
		GamePlaying:  "GamePlaying",
		GameEnd:      "GameEnd",
		Result:       "Result",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", state, got, want)
		}
	}
}
