package api

import (
	"encoding/json"
	"image/png"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"smabrog/internal/config"
)

// Handler methods for routerHandlers.

func (h *routerHandlers) handleCurrentBattle(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.source.CurrentBattle())
}

func (h *routerHandlers) handleCurrentScene(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"scene": h.source.CurrentScene()})
}

// handleHistory serves the last N finished battles, optionally filtered
// to ones where every requested character played. Query params:
// limit (default 20, capped at 200), character (repeatable).
func (h *routerHandlers) handleHistory(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		writeJSON(w, []any{})
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 200 {
		limit = 200
	}

	characters := r.URL.Query()["character"]

	records, err := h.history.LastNWithCharacters(characters, limit)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, records)
}

// handleIcon serves a character's icon as a PNG, decoded (and
// re-encoded, normalizing away whatever source format the catalog
// resource shipped it in) on every request rather than cached, since
// the icon set is small and local.
func (h *routerHandlers) handleIcon(w http.ResponseWriter, r *http.Request) {
	if h.icons == nil {
		writeError(w, "icons not configured", http.StatusNotFound)
		return
	}
	character := chi.URLParam(r, "character")
	img, err := h.icons.LoadIcon(h.iconDir, character)
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	png.Encode(w, img)
}

func (h *routerHandlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	state, err := config.LoadPersistedState(h.settingsPath)
	if err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, state)
}

func (h *routerHandlers) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var state config.PersistedState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeError(w, "invalid request", http.StatusBadRequest)
		return
	}
	if err := config.SavePersistedState(h.settingsPath, state); err != nil {
		writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
