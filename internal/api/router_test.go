package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"smabrog/internal/battle"
)

type stubSource struct {
	battle battle.BattleData
	scene  string
}

func (s stubSource) CurrentBattle() battle.BattleData { return s.battle }
func (s stubSource) CurrentScene() string              { return s.scene }

type stubHistory struct {
	records []battle.BattleData
}

func (s stubHistory) LastN(n int) ([]battle.BattleData, error) {
	if n < len(s.records) {
		return s.records[:n], nil
	}
	return s.records, nil
}

func (s stubHistory) LastNWithCharacters(characters []string, n int) ([]battle.BattleData, error) {
	return s.LastN(n)
}

func newTestRouter() http.Handler {
	return NewRouter(RouterConfig{
		Source:         stubSource{scene: "GamePlaying"},
		History:        stubHistory{},
		DisableLogging: true,
	})
}

func TestHandleCurrentScene(t *testing.T) {
	srv := httptest.NewServer(newTestRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/scene")
	if err != nil {
		t.Fatalf("GET /api/scene: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleHistoryWithoutStoreReturnsEmptyArray(t *testing.T) {
	r := NewRouter(RouterConfig{
		Source:         stubSource{},
		DisableLogging: true,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/history")
	if err != nil {
		t.Fatalf("GET /api/history: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestSettingsRouteRequiresAuthWhenEnabled(t *testing.T) {
	sm := NewSessionManager("secret")
	r := NewRouter(RouterConfig{
		Source:          stubSource{},
		History:         stubHistory{},
		SessionManager:  sm,
		EnableAdminAuth: true,
		DisableLogging:  true,
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/settings", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/settings: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		t.Fatalf("expected settings write to be rejected without a session, got 200")
	}
}

func TestIconRouteNotFoundWithoutCatalog(t *testing.T) {
	srv := httptest.NewServer(newTestRouter())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/icon/mario")
	if err != nil {
		t.Fatalf("GET /api/icon/mario: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}
