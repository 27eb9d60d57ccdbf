package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// tickBroadcastInterval matches the GUI's 10Hz refresh contract: fast
// enough that a scene transition feels instant, slow enough that a
// dozen connected clients never saturate the broadcast channel.
const tickBroadcastInterval = 100 * time.Millisecond

// Server is the HTTP API server with WebSocket support.
type Server struct {
	source      DataSource
	history     HistoryReader
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
}

// NewServer creates a new API server with default production configuration.
//
// IMPORTANT: Background workers do NOT start until Start() is called.
func NewServer(source DataSource, history HistoryReader, settingsPath string) *Server {
	return NewServerWithAuth(source, history, settingsPath, nil, false)
}

// NewServerWithAuth creates a new API server with settings-write
// authentication.
func NewServerWithAuth(source DataSource, history HistoryReader, settingsPath string, sessionMgr *SessionManager, enableAuth bool) *Server {
	return NewServerWithIcons(source, history, settingsPath, nil, "", sessionMgr, enableAuth)
}

// NewServerWithIcons additionally serves /api/icon/{character} from the
// given catalog and icon directory. icons may be nil to leave the route
// disabled.
func NewServerWithIcons(source DataSource, history HistoryReader, settingsPath string, icons IconCatalog, iconDir string, sessionMgr *SessionManager, enableAuth bool) *Server {
	s := &Server{
		source:  source,
		history: history,
		wsHub:   NewWebSocketHub(),
	}

	s.rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)

	s.router = NewRouter(RouterConfig{
		Source:          source,
		History:         history,
		Icons:           icons,
		IconDir:         iconDir,
		RateLimiter:     s.rateLimiter,
		SessionManager:  sessionMgr,
		EnableAdminAuth: enableAuth,
		SettingsPath:    settingsPath,
	})

	s.setupWebSocketRoutes()

	return s
}

func (s *Server) setupWebSocketRoutes() {
	s.router.Get("/ws", s.handleWS)
}

// Start begins the HTTP server AND starts background workers.
// Call this method only once.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.source, tickBroadcastInterval)

	log.Printf("🌐 API server starting on %s", addr)

	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler for use with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Stop performs graceful shutdown of background workers.
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}
