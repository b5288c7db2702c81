package server

import (
	"net/http"
	"strconv"

	"songclub/logger"

	"github.com/gorilla/mux"
)

// GetThemesHandler handles GET /api/themes. The reference list is served
// from the Redis cache when possible.
func (h *APIHandler) GetThemesHandler(w http.ResponseWriter, r *http.Request) {
	if themes, ok := h.themeCache.Get(r.Context()); ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"themes": themes})
		return
	}

	themes, err := h.themeRepo.GetAllThemes()
	if err != nil {
		logger.Error("[Themes] Failed to list themes", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.themeCache.Set(r.Context(), themes); err != nil {
		logger.Warn("[Themes] Failed to cache themes", logger.ErrorField(err))
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"themes": themes})
}

// GetThemeTracksHandler handles GET /api/themes/{id}/tracks, the theme page.
func (h *APIHandler) GetThemeTracksHandler(w http.ResponseWriter, r *http.Request) {
	themeID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid theme ID")
		return
	}

	theme, err := h.themeRepo.GetThemeByID(themeID)
	if err != nil {
		logger.Error("[Themes] Failed to look up theme", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if theme == nil {
		writeError(w, http.StatusNotFound, "Theme not found")
		return
	}

	tracks, err := h.trackRepo.GetTracksByThemeID(themeID)
	if err != nil {
		logger.Error("[Themes] Failed to list theme tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	merged, err := h.withUploaders(tracks)
	if err != nil {
		logger.Error("[Themes] Failed to batch-fetch uploaders", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"theme":  theme,
		"tracks": merged,
	})
}
