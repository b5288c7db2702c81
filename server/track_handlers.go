package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"songclub/core/search"
	"songclub/logger"
	"songclub/model"

	"github.com/gorilla/mux"
)

// withUploaders merges usernames into tracks via one batch user fetch over
// the distinct uploader set, instead of one query per row.
func (h *APIHandler) withUploaders(tracks []*model.Track) ([]model.TrackWithUploader, error) {
	userIDs := make([]int64, 0, len(tracks))
	seen := make(map[int64]bool)
	for _, t := range tracks {
		if !seen[t.UserID] {
			seen[t.UserID] = true
			userIDs = append(userIDs, t.UserID)
		}
	}

	users, err := h.userRepo.GetUsersByIDs(userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]model.TrackWithUploader, 0, len(tracks))
	for _, t := range tracks {
		username := "Unknown"
		if u, ok := users[t.UserID]; ok {
			username = u.Username
		}
		out = append(out, model.TrackWithUploader{Track: *t, Username: username})
	}
	return out, nil
}

// filterTracks applies the search index to the merged list, preserving the
// list's original ordering.
func filterTracks(tracks []model.TrackWithUploader, query string) []model.TrackWithUploader {
	docs := make([]search.Doc, len(tracks))
	for i, t := range tracks {
		docs[i] = search.Doc{TrackID: t.ID, Title: t.Title, Username: t.Username}
	}
	idx := search.NewMemoryIndex(docs)

	matched := make(map[int64]bool)
	for _, d := range idx.Search(query) {
		matched[d.TrackID] = true
	}

	out := make([]model.TrackWithUploader, 0, len(matched))
	for _, t := range tracks {
		if matched[t.ID] {
			out = append(out, t)
		}
	}
	return out
}

// GetTracksHandler handles GET /api/tracks. The optional q parameter filters
// the full feed in memory.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	tracks, err := h.trackRepo.GetAllTracks()
	if err != nil {
		logger.Error("[Tracks] Failed to list tracks", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	merged, err := h.withUploaders(tracks)
	if err != nil {
		logger.Error("[Tracks] Failed to batch-fetch uploaders", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if q := r.URL.Query().Get("q"); strings.TrimSpace(q) != "" {
		merged = filterTracks(merged, q)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": merged})
}

// trackDetail is the body of GET /api/tracks/{id}.
type trackDetail struct {
	model.TrackWithUploader
	ThemeName    string `json:"theme_name,omitempty"`
	CommentCount int    `json:"comment_count"`
}

// GetTrackHandler handles GET /api/tracks/{id}.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		logger.Error("[Tracks] Failed to look up track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	merged, err := h.withUploaders([]*model.Track{track})
	if err != nil {
		logger.Error("[Tracks] Failed to fetch uploader", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	detail := trackDetail{TrackWithUploader: merged[0]}

	if track.ThemeID != nil {
		if theme, err := h.themeRepo.GetThemeByID(*track.ThemeID); err == nil && theme != nil {
			detail.ThemeName = theme.Name
		}
	}
	if comments, err := h.commentRepo.GetCommentsByTrackID(trackID); err == nil {
		detail.CommentCount = len(comments)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"track": detail})
}

// UpdateTrackRequest is the body of PUT /api/tracks/{id}.
type UpdateTrackRequest struct {
	Title   string  `json:"title"`
	Lyrics  *string `json:"lyrics"`
	ThemeID *int64  `json:"theme_id"`
}

// UpdateTrackHandler handles PUT /api/tracks/{id}. Owner only.
func (h *APIHandler) UpdateTrackHandler(w http.ResponseWriter, r *http.Request) {
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

	var req UpdateTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		logger.Error("[Tracks] Failed to look up track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	if track.UserID != userID {
		writeError(w, http.StatusForbidden, "You can only edit your own tracks")
		return
	}

	if req.ThemeID != nil {
		theme, err := h.themeRepo.GetThemeByID(*req.ThemeID)
		if err != nil {
			logger.Error("[Tracks] Failed to look up theme", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if theme == nil {
			writeError(w, http.StatusBadRequest, "Invalid theme")
			return
		}
	}

	if err := h.trackRepo.UpdateTrack(trackID, title, req.Lyrics, req.ThemeID); err != nil {
		logger.Error("[Tracks] Failed to update track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to update track")
		return
	}

	updated, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil || updated == nil {
		track.Title = title
		track.Lyrics = req.Lyrics
		track.ThemeID = req.ThemeID
		updated = track
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"track": updated})
}

// DeleteTrackHandler handles DELETE /api/tracks/{id}. Owner only. The row is
// removed first; removal of the backing object is best-effort and a failure
// there is logged and ignored.
func (h *APIHandler) DeleteTrackHandler(w http.ResponseWriter, r *http.Request) {
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

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		logger.Error("[Tracks] Failed to look up track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}
	if track.UserID != userID {
		writeError(w, http.StatusForbidden, "You can only delete your own tracks")
		return
	}

	if err := h.trackRepo.DeleteTrack(trackID); err != nil {
		logger.Error("[Tracks] Failed to delete track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete track")
		return
	}

	if key := h.store.KeyFromURL(track.FileURL); key != "" {
		if err := h.store.Remove(r.Context(), key); err != nil {
			logger.Warn("[Tracks] Failed to remove stored audio",
				logger.String("key", key), logger.ErrorField(err))
		}
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
