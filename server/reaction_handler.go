package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"songclub/logger"
	"songclub/model"

	"github.com/gorilla/mux"
)

// ToggleReactionRequest is the body of POST /api/tracks/{id}/reactions.
type ToggleReactionRequest struct {
	Type string `json:"type"`
}

// ToggleReactionHandler handles POST /api/tracks/{id}/reactions. A reaction
// of a given type is inserted when absent and removed when present.
func (h *APIHandler) ToggleReactionHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	var req ToggleReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !model.ValidReactionType(req.Type) {
		writeError(w, http.StatusBadRequest, "Unknown reaction type")
		return
	}

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		logger.Error("[Reactions] Failed to look up track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	active, err := h.reactionRepo.ToggleReaction(trackID, userID, req.Type)
	if err != nil {
		logger.Error("[Reactions] Failed to toggle reaction", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to toggle reaction")
		return
	}

	summary, err := h.reactionSummary(trackID, userID)
	if err != nil {
		logger.Error("[Reactions] Failed to summarize reactions", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active":    active,
		"reactions": summary,
	})
}

// GetReactionsHandler handles GET /api/tracks/{id}/reactions. Anonymous
// callers get counts only; authenticated callers also get their active set.
func (h *APIHandler) GetReactionsHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		logger.Error("[Reactions] Failed to look up track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	userID, _ := GetUserIDFromContext(r.Context()) // zero for anonymous
	summary, err := h.reactionSummary(trackID, userID)
	if err != nil {
		logger.Error("[Reactions] Failed to summarize reactions", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"reactions": summary})
}

func (h *APIHandler) reactionSummary(trackID, userID int64) (*model.ReactionSummary, error) {
	counts, err := h.reactionRepo.CountsByTrackID(trackID)
	if err != nil {
		return nil, err
	}

	mine := []string{}
	if userID != 0 {
		mine, err = h.reactionRepo.TypesByTrackAndUser(trackID, userID)
		if err != nil {
			return nil, err
		}
	}

	return &model.ReactionSummary{Counts: counts, Mine: mine}, nil
}
