// Package config provides centralized configuration management.
// This is the SINGLE SOURCE OF TRUTH for capture, server, and persisted
// GUI settings.
//
// IMPORTANT: When changing values, only modify this file.
// All other parts of the codebase should reference these values.
package config

import (
	"encoding/json"
	"os"
	"strconv"
)

// =============================================================================
// CAPTURE CONFIGURATION
// =============================================================================

// CaptureKind mirrors capture.Kind without importing it, so this package
// stays free of a dependency on gocv.
type CaptureKind int

const (
	CaptureEmpty CaptureKind = iota
	CaptureWindow
	CaptureVideoDevice
	CaptureDesktop
)

// CaptureConfig selects and parameterizes the frame source plus the
// resource/language directories every recognizer loads its templates
// from.
type CaptureConfig struct {
	Kind           CaptureKind
	WindowCaption  string
	VideoDeviceIdx int
	ResourceDir    string
	LangDir        string
	Language       string // BCP-47-ish tag, e.g. "en", "ja"; selects LangDir/<Language>
}

// DefaultCapture returns the default capture configuration: an empty
// placeholder source pointed at the bundled resource tree, so the
// pipeline starts up without a live capture device attached.
func DefaultCapture() CaptureConfig {
	return CaptureConfig{
		Kind:        CaptureEmpty,
		ResourceDir: "resource",
		LangDir:     "resource/lang",
		Language:    "en",
	}
}

// CaptureFromEnv returns capture configuration with environment variable
// overrides. Environment variables take precedence over defaults.
func CaptureFromEnv() CaptureConfig {
	cfg := DefaultCapture()

	switch os.Getenv("CAPTURE_KIND") {
	case "window":
		cfg.Kind = CaptureWindow
	case "video_device":
		cfg.Kind = CaptureVideoDevice
	case "desktop":
		cfg.Kind = CaptureDesktop
	case "empty", "":
		// keep default
	}

	if v := os.Getenv("CAPTURE_WINDOW_CAPTION"); v != "" {
		cfg.WindowCaption = v
	}
	if idx := getEnvInt("CAPTURE_VIDEO_DEVICE_INDEX", -1); idx >= 0 {
		cfg.VideoDeviceIdx = idx
	}
	if v := os.Getenv("SMABROG_RESOURCE_DIR"); v != "" {
		cfg.ResourceDir = v
	}
	if v := os.Getenv("SMABROG_LANG_DIR"); v != "" {
		cfg.LangDir = v
	}
	if v := os.Getenv("SMABROG_LANGUAGE"); v != "" {
		cfg.Language = v
	}

	return cfg
}

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings for internal/api.
type ServerConfig struct {
	Port           int
	MetricsPort    int
	AllowedOrigins []string
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:           3000,
		MetricsPort:    9090,
		AllowedOrigins: []string{"http://localhost:3000"},
	}
}

// ServerFromEnv returns server configuration with environment variable
// overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if mp := getEnvInt("METRICS_PORT", 0); mp > 0 {
		cfg.MetricsPort = mp
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCommaList(v)
	}

	return cfg
}

func splitCommaList(v string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			if i > start {
				out = append(out, v[start:i])
			}
			start = i + 1
		}
	}
	return out
}

// =============================================================================
// PERSISTED GUI STATE
// =============================================================================

// PersistedState is the small JSON blob of settings a GUI remembers
// across restarts: window placement, the active capture mode, language,
// how many history records to keep showing, the display font, whether
// BGM-name guesses should be surfaced, and overall GUI visibility.
type PersistedState struct {
	WindowX      int    `json:"window_x"`
	WindowY      int    `json:"window_y"`
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`
	CaptureMode  string `json:"capture_mode"`
	Language     string `json:"language"`
	MaxResults   int    `json:"max_results"`
	Font         string `json:"font"`
	ShowBGMHints bool   `json:"show_bgm_hints"`
	GUIVisible   bool   `json:"gui_visible"`
}

// DefaultPersistedState returns the settings a GUI starts with before
// any state has ever been saved.
func DefaultPersistedState() PersistedState {
	return PersistedState{
		WindowX:      0,
		WindowY:      0,
		WindowWidth:  800,
		WindowHeight: 600,
		CaptureMode:  "empty",
		Language:     "en",
		MaxResults:   20,
		Font:         "default",
		ShowBGMHints: true,
		GUIVisible:   true,
	}
}

// LoadPersistedState reads the JSON blob at path, seeding every field
// DefaultPersistedState provides before decoding over it, so a file
// missing newer fields (or no file at all) still comes back fully
// populated.
func LoadPersistedState(path string) (PersistedState, error) {
	state := DefaultPersistedState()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return state, nil
	}
	if err != nil {
		return state, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&state); err != nil {
		return state, err
	}
	return state, nil
}

// SavePersistedState writes state as indented JSON to path, overwriting
// whatever was there.
func SavePersistedState(path string, state PersistedState) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(state)
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Capture CaptureConfig
	Server  ServerConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Capture: CaptureFromEnv(),
		Server:  ServerFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}
