package server

import (
	"net/http"
	"strconv"

	"songclub/logger"

	"github.com/gorilla/mux"
)

// GetProfileHandler handles GET /api/users/{id}, the public profile view.
func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("[Users] Failed to look up user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": user.Profile()})
}

// GetUserTracksHandler handles GET /api/users/{id}/tracks, the profile page
// track list.
func (h *APIHandler) GetUserTracksHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("[Users] Failed to look up user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	tracks, err := h.trackRepo.GetTracksByUserID(userID)
	if err != nil {
		logger.Error("[Users] Failed to list user tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	merged, err := h.withUploaders(tracks)
	if err != nil {
		logger.Error("[Users] Failed to batch-fetch uploaders", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"profile": user.Profile(),
		"tracks":  merged,
	})
}
