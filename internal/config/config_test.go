package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPersistedStateMissingFileReturnsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.json")

	state, err := LoadPersistedState(path)
	if err != nil {
		t.Fatalf("LoadPersistedState: %v", err)
	}
	if state != DefaultPersistedState() {
		t.Fatalf("state = %+v, want defaults %+v", state, DefaultPersistedState())
	}
}

func TestSaveThenLoadPersistedStateRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")

	want := DefaultPersistedState()
	want.Language = "ja"
	want.MaxResults = 50
	want.ShowBGMHints = false

	if err := SavePersistedState(path, want); err != nil {
		t.Fatalf("SavePersistedState: %v", err)
	}

	got, err := LoadPersistedState(path)
	if err != nil {
		t.Fatalf("LoadPersistedState: %v", err)
	}
	if got != want {
		t.Fatalf("round-tripped state = %+v, want %+v", got, want)
	}
}

func TestLoadPersistedStateSeedsMissingFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.json")
	if err := os.WriteFile(path, []byte(`{"language":"fr"}`), 0o644); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}

	state, err := LoadPersistedState(path)
	if err != nil {
		t.Fatalf("LoadPersistedState: %v", err)
	}
	if state.Language != "fr" {
		t.Fatalf("Language = %q, want fr", state.Language)
	}
	if state.MaxResults != DefaultPersistedState().MaxResults {
		t.Fatalf("MaxResults = %d, want default %d", state.MaxResults, DefaultPersistedState().MaxResults)
	}
}

func TestCaptureFromEnvDefaultsToEmpty(t *testing.T) {
	t.Setenv("CAPTURE_KIND", "")
	cfg := CaptureFromEnv()
	if cfg.Kind != CaptureEmpty {
		t.Fatalf("Kind = %v, want CaptureEmpty", cfg.Kind)
	}
}

func TestCaptureFromEnvReadsWindowKind(t *testing.T) {
	t.Setenv("CAPTURE_KIND", "window")
	t.Setenv("CAPTURE_WINDOW_CAPTION", "Super Smash Bros. Ultimate")

	cfg := CaptureFromEnv()
	if cfg.Kind != CaptureWindow {
		t.Fatalf("Kind = %v, want CaptureWindow", cfg.Kind)
	}
	if cfg.WindowCaption != "Super Smash Bros. Ultimate" {
		t.Fatalf("WindowCaption = %q", cfg.WindowCaption)
	}
}
