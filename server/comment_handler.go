package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"songclub/logger"
	"songclub/model"

	"github.com/gorilla/mux"
)

// CreateCommentRequest is the body of POST /functions/v1/create-comment.
type CreateCommentRequest struct {
	TrackID int64  `json:"track_id"`
	Content string `json:"content"`
}

// CreateCommentHandler handles POST /functions/v1/create-comment. This is
// the hardened variant: everything the client pre-checks is re-validated
// here.
func (h *APIHandler) CreateCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req CreateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.TrackID == 0 || req.Content == "" {
		writeError(w, http.StatusBadRequest, "Track ID and content are required")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusBadRequest, "Comment cannot be empty")
		return
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		writeError(w, http.StatusBadRequest, "Comment cannot exceed 500 characters")
		return
	}

	windowStart := h.now().Add(-h.cfg.RateLimitWindow)
	recent, err := h.commentRepo.CountCommentsByUserSince(userID, windowStart)
	if err != nil {
		logger.Error("[Comment] Failed to count recent comments", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if recent >= h.cfg.CommentRateLimit {
		writeError(w, http.StatusTooManyRequests, "Comment rate limit exceeded. Maximum 10 comments per hour.")
		return
	}

	track, err := h.trackRepo.GetTrackByID(req.TrackID)
	if err != nil {
		logger.Error("[Comment] Failed to look up track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	comment := &model.Comment{
		TrackID: req.TrackID,
		UserID:  userID,
		Content: content,
	}
	id, err := h.commentRepo.CreateComment(comment)
	if err != nil {
		logger.Error("[Comment] Failed to create comment", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create comment")
		return
	}

	created, err := h.commentRepo.GetCommentByID(id)
	if err != nil || created == nil {
		comment.ID = id
		created = comment
	}

	// Join the author's username into the response.
	username := ""
	if author, err := h.userRepo.GetUserByID(userID); err == nil && author != nil {
		username = author.Username
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"comment": model.CommentWithAuthor{Comment: *created, Username: username},
	})
}

// GetTrackCommentsHandler handles GET /api/tracks/{id}/comments. Usernames
// are merged in via one batch user fetch.
func (h *APIHandler) GetTrackCommentsHandler(w http.ResponseWriter, r *http.Request) {
	trackID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid track ID")
		return
	}

	track, err := h.trackRepo.GetTrackByID(trackID)
	if err != nil {
		logger.Error("[Comment] Failed to look up track", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if track == nil {
		writeError(w, http.StatusNotFound, "Track not found")
		return
	}

	comments, err := h.commentRepo.GetCommentsByTrackID(trackID)
	if err != nil {
		logger.Error("[Comment] Failed to list comments", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	userIDs := make([]int64, 0, len(comments))
	seen := make(map[int64]bool)
	for _, c := range comments {
		if !seen[c.UserID] {
			seen[c.UserID] = true
			userIDs = append(userIDs, c.UserID)
		}
	}
	users, err := h.userRepo.GetUsersByIDs(userIDs)
	if err != nil {
		logger.Error("[Comment] Failed to batch-fetch authors", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]model.CommentWithAuthor, 0, len(comments))
	for _, c := range comments {
		username := "Unknown"
		if u, ok := users[c.UserID]; ok {
			username = u.Username
		}
		out = append(out, model.CommentWithAuthor{Comment: *c, Username: username})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"comments": out})
}

// UpdateCommentRequest is the body of PUT /api/comments/{id}.
type UpdateCommentRequest struct {
	Content string `json:"content"`
}

// UpdateCommentHandler handles PUT /api/comments/{id}. Only the author may
// edit, and the content rules match creation.
func (h *APIHandler) UpdateCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	commentID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	var req UpdateCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		writeError(w, http.StatusBadRequest, "Comment cannot be empty")
		return
	}
	if utf8.RuneCountInString(content) > model.MaxCommentLength {
		writeError(w, http.StatusBadRequest, "Comment cannot exceed 500 characters")
		return
	}

	comment, err := h.commentRepo.GetCommentByID(commentID)
	if err != nil {
		logger.Error("[Comment] Failed to look up comment", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if comment == nil {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID != userID {
		writeError(w, http.StatusForbidden, "You can only edit your own comments")
		return
	}

	if err := h.commentRepo.UpdateComment(commentID, content); err != nil {
		logger.Error("[Comment] Failed to update comment", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to update comment")
		return
	}

	comment.Content = content
	writeJSON(w, http.StatusOK, map[string]interface{}{"comment": comment})
}

// DeleteCommentHandler handles DELETE /api/comments/{id}. Author only.
func (h *APIHandler) DeleteCommentHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	commentID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid comment ID")
		return
	}

	comment, err := h.commentRepo.GetCommentByID(commentID)
	if err != nil {
		logger.Error("[Comment] Failed to look up comment", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if comment == nil {
		writeError(w, http.StatusNotFound, "Comment not found")
		return
	}
	if comment.UserID != userID {
		writeError(w, http.StatusForbidden, "You can only delete your own comments")
		return
	}

	if err := h.commentRepo.DeleteComment(commentID); err != nil {
		logger.Error("[Comment] Failed to delete comment", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete comment")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}
