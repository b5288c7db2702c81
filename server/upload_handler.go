package server

import (
	"net/http"
	"strconv"
	"strings"

	"songclub/logger"
	"songclub/model"
	"songclub/storage"
)

// allowedAudioTypes is the MIME allow-list for uploads.
var allowedAudioTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/wav":  true,
	"audio/mp3":  true,
	"audio/m4a":  true,
}

// UploadTrackHandler handles POST /functions/v1/upload-track.
//
// Multipart form fields:
//   - file: the audio file (required)
//   - title: track title (required)
//   - lyrics: optional
//   - theme_id: optional unless UploadRequireTheme is set
//
// Validation, the rate limit and the compensating delete all run server-side
// regardless of what the client checked.
func (h *APIHandler) UploadTrackHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil { // 32MB in memory, rest spills to disk
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "File and title are required")
		return
	}
	defer file.Close()

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "File and title are required")
		return
	}

	if header.Size > h.cfg.MaxUploadBytes {
		writeError(w, http.StatusBadRequest, "File size exceeds 50MB limit")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if !allowedAudioTypes[contentType] {
		writeError(w, http.StatusBadRequest, "Invalid file type. Only audio files are allowed.")
		return
	}

	var lyrics *string
	if l := strings.TrimSpace(r.FormValue("lyrics")); l != "" {
		lyrics = &l
	}

	var themeID *int64
	if raw := strings.TrimSpace(r.FormValue("theme_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid theme")
			return
		}
		theme, err := h.themeRepo.GetThemeByID(id)
		if err != nil {
			logger.Error("[Upload] Failed to look up theme", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if theme == nil {
			writeError(w, http.StatusBadRequest, "Invalid theme")
			return
		}
		themeID = &id
	}
	if h.cfg.UploadRequireTheme && themeID == nil {
		writeError(w, http.StatusBadRequest, "Theme is required")
		return
	}

	// Rate limit: count existing rows for the caller inside the trailing
	// window before any side effect.
	windowStart := h.now().Add(-h.cfg.RateLimitWindow)
	recent, err := h.trackRepo.CountTracksByUserSince(userID, windowStart)
	if err != nil {
		logger.Error("[Upload] Failed to count recent uploads", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if recent >= h.cfg.UploadRateLimit {
		writeError(w, http.StatusTooManyRequests, "Upload rate limit exceeded. Maximum 5 uploads per hour.")
		return
	}

	key := storage.ObjectKey(userID, h.now(), header.Filename)
	if err := h.store.Put(r.Context(), key, file, header.Size, contentType); err != nil {
		logger.Error("[Upload] Failed to store file", logger.String("key", key), logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to upload file")
		return
	}

	track := &model.Track{
		UserID:   userID,
		Title:    title,
		Lyrics:   lyrics,
		ThemeID:  themeID,
		FileURL:  h.store.PublicURL(key),
		FileSize: header.Size,
	}

	id, err := h.trackRepo.CreateTrack(track)
	if err != nil {
		// Compensating delete: the blob must not stay reachable when no row
		// references it.
		if rmErr := h.store.Remove(r.Context(), key); rmErr != nil {
			logger.Error("[Upload] Failed to remove orphaned object", logger.String("key", key), logger.ErrorField(rmErr))
		}
		logger.Error("[Upload] Failed to create track row", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create song record")
		return
	}

	created, err := h.trackRepo.GetTrackByID(id)
	if err != nil || created == nil {
		// The row exists; fall back to what we already know.
		track.ID = id
		created = track
	}

	logger.Info("[Upload] Track created",
		logger.Int64("trackId", id),
		logger.Int64("userId", userID),
		logger.String("title", title))

	writeJSON(w, http.StatusOK, map[string]interface{}{"song": created})
}
