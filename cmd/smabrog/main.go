package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gocv.io/x/gocv"

	"smabrog/internal/api"
	"smabrog/internal/battle"
	"smabrog/internal/capture"
	"smabrog/internal/catalog"
	"smabrog/internal/config"
	"smabrog/internal/scene"
	"smabrog/internal/store"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("💡 No .env file found, using environment variables only")
	} else {
		log.Println("✅ Loaded environment from .env")
	}

	log.Println("🎮 ================================")
	log.Println("🎮  SMABROG - MATCH RECOGNIZER")
	log.Println("🎮 ================================")

	appConfig := config.Load()
	captureCfg := appConfig.Capture
	serverCfg := appConfig.Server

	settingsPath := getEnvWithDefault("SMABROG_SETTINGS_PATH", "smabrog_settings.json")
	persisted, err := config.LoadPersistedState(settingsPath)
	if err != nil {
		log.Printf("⚠️ Failed to load persisted GUI state, using defaults: %v", err)
	}
	if persisted.Language != "" {
		captureCfg.Language = persisted.Language
	}

	cat, err := catalog.Load(getEnvWithDefault("SMABROG_CATALOG_PATH", captureCfg.ResourceDir+"/catalog.json"))
	if err != nil {
		log.Fatalf("❌ Failed to load character/BGM catalog: %v", err)
	}
	log.Printf("📖 Catalog loaded: %d characters", len(cat.CharacterNames()))

	dbPath := getEnvWithDefault("SMABROG_DB_PATH", "smabrog.db")
	battleStore, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("❌ Failed to open battle store %s: %v", dbPath, err)
	}
	defer battleStore.Close()
	log.Printf("🗄️ Battle history database: %s", dbPath)

	acc := battle.NewAccumulator(cat)

	langDir := captureCfg.LangDir + "/" + captureCfg.Language
	pipeline, err := scene.NewPipeline(captureCfg.ResourceDir, langDir, acc, func(data battle.BattleData) {
		if err := battleStore.Save(data); err != nil {
			log.Printf("⚠️ Failed to persist finished battle: %v", err)
			return
		}
		log.Printf("💾 Saved battle: %d players, rule=%s", data.PlayerCount, data.Rule)
	})
	if err != nil {
		log.Fatalf("❌ Failed to build recognition pipeline: %v", err)
	}
	log.Printf("🧠 Recognition pipeline ready (language=%s)", captureCfg.Language)

	readyToFight, err := scene.NewReadyToFightRecognizer(captureCfg.ResourceDir)
	if err != nil {
		log.Fatalf("❌ Failed to build calibration matcher: %v", err)
	}

	source, err := capture.New(capture.Config{
		Kind:                capture.Kind(captureCfg.Kind),
		WindowCaption:       captureCfg.WindowCaption,
		VideoDeviceIdx:      captureCfg.VideoDeviceIdx,
		PlaceholderPNG:      captureCfg.ResourceDir + "/placeholder.png",
		ReadinessCheck:      func(frame gocv.Mat) bool { _, _, ok := readyToFight.Match(frame); return ok },
		ReadyToFightMatcher: readyToFight,
	})
	if err != nil {
		log.Fatalf("❌ Failed to initialize capture source: %v", err)
	}
	defer source.Close()
	log.Printf("📷 Capture source: kind=%d", captureCfg.Kind)

	tracker := scene.NewTracker(pipeline, acc)

	var sessionManager *api.SessionManager
	adminAuthEnabled := os.Getenv("ADMIN_AUTH_ENABLED") == "true"
	if adminAuthEnabled {
		sessionManager = api.NewSessionManager(os.Getenv("SMABROG_PASSCODE"))
		log.Println("🔐 Admin authentication ENABLED for settings writes")
	} else {
		log.Println("⚠️ Admin authentication DISABLED (set ADMIN_AUTH_ENABLED=true to enable)")
	}

	iconDir := getEnvWithDefault("SMABROG_ICON_DIR", captureCfg.ResourceDir+"/icon")
	server := api.NewServerWithIcons(tracker, battleStore, settingsPath, cat, iconDir, sessionManager, adminAuthEnabled)

	debugCfg := api.DefaultObservabilityConfig()
	debugCfg.ListenAddr = "127.0.0.1:" + strconv.Itoa(serverCfg.MetricsPort)
	if os.Getenv("DISABLE_DEBUG_SERVER") == "true" {
		debugCfg.Enabled = false
	}
	if err := api.StartDebugServer(debugCfg); err != nil {
		log.Printf("⚠️ Debug server disabled: %v", err)
	}

	go func() {
		addr := ":" + strconv.Itoa(serverCfg.Port)
		log.Printf("🌐 API server on http://localhost%s", addr)
		if err := server.Start(addr); err != nil {
			log.Fatalf("❌ Failed to start API server: %v", err)
		}
	}()

	stopTick := make(chan struct{})
	go runTickLoop(pipeline, source, stopTick)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ smabrog ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	close(stopTick)
	server.Stop()
}

// runTickLoop pulls one frame per tick from source and feeds it through
// the recognition pipeline. A transient ErrFrameUnavailable is logged
// and skipped rather than treated as fatal, matching capture.Source's
// error contract.
func runTickLoop(pipeline *scene.Pipeline, source capture.Source, stop <-chan struct{}) {
	const tickInterval = 1 * time.Second / 30

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			frame, err := source.AcquireFrame()
			if err != nil {
				if err == capture.ErrFrameUnavailable {
					continue
				}
				log.Printf("⚠️ Capture error: %v", err)
				continue
			}
			if err := pipeline.Tick(frame); err != nil {
				log.Printf("⚠️ Tick error: %v", err)
			}
			frame.Close()
		}
	}
}

func getEnvWithDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

