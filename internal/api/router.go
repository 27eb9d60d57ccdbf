package api

import (
	"image"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"smabrog/internal/battle"
)

// DataSource exposes the live recognition state the GUI polls and
// subscribes to. The pipeline's dispatcher+accumulator pair implements
// this directly; tests substitute a stub.
type DataSource interface {
	// CurrentBattle returns the battle currently being tracked, zero
	// value if none.
	CurrentBattle() battle.BattleData
	// CurrentScene returns the dispatcher's current scene name.
	CurrentScene() string
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
// This struct is designed for dependency injection and testability.
type RouterConfig struct {
	// Source is the live battle/scene data source (required).
	Source DataSource

	// History is the finished-battle store (required for /api/history).
	History HistoryReader

	// Icons is the character catalog backing /api/icon/{character}.
	// Optional - the route 404s without it.
	Icons IconCatalog

	// IconDir is the directory icon file names in Icons are relative to.
	IconDir string

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses the default local-GUI origins.
	CORSOrigins []string

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool

	// SessionManager is optional - if provided, settings-write routes are protected.
	SessionManager *SessionManager

	// EnableAdminAuth enables authentication for settings-write routes (requires SessionManager).
	EnableAdminAuth bool

	// SettingsPath is where persisted GUI state (internal/config.PersistedState)
	// is read from and written to.
	SettingsPath string
}

// HistoryReader is the read side of internal/store.Store the API needs,
// kept narrow so tests can stub it without a real database.
type HistoryReader interface {
	LastN(n int) ([]battle.BattleData, error)
	LastNWithCharacters(characters []string, n int) ([]battle.BattleData, error)
}

// IconCatalog is the read side of internal/catalog.Catalog the API needs
// to serve character icons.
type IconCatalog interface {
	LoadIcon(iconDir, character string) (image.Image, error)
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	source       DataSource
	history      HistoryReader
	icons        IconCatalog
	iconDir      string
	settingsPath string
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		source:       cfg.Source,
		history:      cfg.History,
		icons:        cfg.Icons,
		iconDir:      cfg.IconDir,
		settingsPath: cfg.SettingsPath,
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/battle", h.handleCurrentBattle)
		r.Get("/scene", h.handleCurrentScene)
		r.Get("/history", h.handleHistory)
		r.Get("/icon/{character}", h.handleIcon)
		r.Get("/settings", h.handleGetSettings)

		settingsWrite := func(r chi.Router) {
			r.Post("/settings", h.handleSaveSettings)
		}
		if cfg.EnableAdminAuth && cfg.SessionManager != nil {
			r.Group(func(r chi.Router) {
				r.Use(cfg.SessionManager.AdminAuthMiddleware)
				settingsWrite(r)
			})
		} else {
			settingsWrite(r)
		}

		r.Get("/auth/status", func(w http.ResponseWriter, req *http.Request) {
			if cfg.SessionManager != nil {
				cfg.SessionManager.HandleAuthStatus(w, req)
			} else {
				writeJSON(w, map[string]bool{"authenticated": true})
			}
		})
		r.Post("/auth/login", func(w http.ResponseWriter, req *http.Request) {
			if cfg.SessionManager != nil {
				cfg.SessionManager.HandleLogin(w, req)
			} else {
				writeJSON(w, map[string]bool{"success": true})
			}
		})
	})

	r.Get("/login", handleLoginPage(cfg))
	r.Get("/logout", func(w http.ResponseWriter, req *http.Request) {
		if cfg.SessionManager != nil {
			cfg.SessionManager.HandleLogout(w, req)
		} else {
			http.Redirect(w, req, "/", http.StatusFound)
		}
	})

	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"service":"smabrog"}`))
	})

	return r
}

// GetRateLimiterFromRouter is a helper to extract the rate limiter from a configured router.
func GetRateLimiterFromRouter(cfg RouterConfig) *IPRateLimiter {
	if cfg.RateLimiter != nil {
		return cfg.RateLimiter
	}
	rateLimitCfg := DefaultRateLimitConfig
	if cfg.RateLimitConfig != nil {
		rateLimitCfg = *cfg.RateLimitConfig
	}
	return NewIPRateLimiter(rateLimitCfg)
}

func handleLoginPage(cfg RouterConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cfg.SessionManager != nil {
			if session := cfg.SessionManager.ValidateSession(r); session != nil {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(loginPageHTML))
	}
}

const loginPageHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>smabrog</title>
</head>
<body>
    <p>Enter the local passcode to adjust settings.</p>
    <form method="post" action="/api/auth/login">
        <input type="password" name="passcode" autofocus>
        <button type="submit">Unlock</button>
    </form>
</body>
</html>
`
