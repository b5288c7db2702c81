package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"songclub/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commentRequest(t *testing.T, d *deps, body string, authed bool) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/functions/v1/create-comment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", d.bearer(t, 7, "alice"))
	}
	return req
}

func TestCreateComment_Unauthorized(t *testing.T) {
	d := newTestHandler(t)

	rec := d.serve(commentRequest(t, d, `{"track_id":1,"content":"hi"}`, false))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateComment_Validation(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{
			name:    "missing track id",
			body:    `{"content":"hi"}`,
			wantMsg: "Track ID and content are required",
		},
		{
			name:    "missing content",
			body:    `{"track_id":1}`,
			wantMsg: "Track ID and content are required",
		},
		{
			name:    "whitespace only",
			body:    `{"track_id":1,"content":"   "}`,
			wantMsg: "Comment cannot be empty",
		},
		{
			name:    "too long",
			body:    `{"track_id":1,"content":"` + strings.Repeat("a", 501) + `"}`,
			wantMsg: "Comment cannot exceed 500 characters",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestHandler(t)

			rec := d.serve(commentRequest(t, d, tt.body, true))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.wantMsg+`"}`, rec.Body.String())
		})
	}
}

func TestCreateComment_RateLimited(t *testing.T) {
	d := newTestHandler(t)
	d.comments.countCommentsByUserSince = func(userID int64, since time.Time) (int, error) {
		return 10, nil
	}

	rec := d.serve(commentRequest(t, d, `{"track_id":1,"content":"hi"}`, true))

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"error":"Comment rate limit exceeded. Maximum 10 comments per hour."}`, rec.Body.String())
}

func TestCreateComment_TrackNotFound(t *testing.T) {
	d := newTestHandler(t)
	d.comments.countCommentsByUserSince = func(userID int64, since time.Time) (int, error) {
		return 0, nil
	}
	d.tracks.getTrackByID = func(id int64) (*model.Track, error) { return nil, nil }

	rec := d.serve(commentRequest(t, d, `{"track_id":99,"content":"hi"}`, true))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Track not found"}`, rec.Body.String())
}

func TestCreateComment_Success(t *testing.T) {
	d := newTestHandler(t)
	d.comments.countCommentsByUserSince = func(userID int64, since time.Time) (int, error) {
		return 9, nil // one below the limit still goes through
	}
	d.tracks.getTrackByID = func(id int64) (*model.Track, error) {
		return &model.Track{ID: id, UserID: 2, Title: "Some Track"}, nil
	}

	var inserted *model.Comment
	d.comments.createComment = func(comment *model.Comment) (int64, error) {
		inserted = comment
		return 11, nil
	}
	d.comments.getCommentByID = func(id int64) (*model.Comment, error) {
		return &model.Comment{ID: id, TrackID: inserted.TrackID, UserID: inserted.UserID, Content: inserted.Content}, nil
	}
	d.users.getUserByID = func(id int64) (*model.User, error) {
		return &model.User{ID: id, Username: "alice"}, nil
	}

	rec := d.serve(commentRequest(t, d, `{"track_id":3,"content":"  nice track  "}`, true))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Comment model.CommentWithAuthor `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(11), resp.Comment.ID)
	assert.Equal(t, int64(3), resp.Comment.TrackID)
	assert.Equal(t, int64(7), resp.Comment.UserID)
	assert.Equal(t, "nice track", resp.Comment.Content)
	assert.Equal(t, "alice", resp.Comment.Username)
}

func TestUpdateComment_NotAuthor(t *testing.T) {
	d := newTestHandler(t)
	d.comments.getCommentByID = func(id int64) (*model.Comment, error) {
		return &model.Comment{ID: id, TrackID: 1, UserID: 99, Content: "original"}, nil
	}

	req := httptest.NewRequest(http.MethodPut, "/api/comments/5", strings.NewReader(`{"content":"edited"}`))
	req.Header.Set("Authorization", d.bearer(t, 7, "alice"))

	rec := d.serve(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteComment_AuthorOnly(t *testing.T) {
	d := newTestHandler(t)
	d.comments.getCommentByID = func(id int64) (*model.Comment, error) {
		return &model.Comment{ID: id, TrackID: 1, UserID: 7, Content: "mine"}, nil
	}
	deleted := false
	d.comments.deleteComment = func(id int64) error {
		deleted = true
		return nil
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/comments/5", nil)
	req.Header.Set("Authorization", d.bearer(t, 7, "alice"))

	rec := d.serve(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, deleted)
}

func TestGetTrackComments_MergesUsernames(t *testing.T) {
	d := newTestHandler(t)
	d.tracks.getTrackByID = func(id int64) (*model.Track, error) {
		return &model.Track{ID: id, Title: "Some Track"}, nil
	}
	d.comments.getCommentsByTrackID = func(trackID int64) ([]*model.Comment, error) {
		return []*model.Comment{
			{ID: 1, TrackID: trackID, UserID: 7, Content: "first"},
			{ID: 2, TrackID: trackID, UserID: 8, Content: "second"},
		}, nil
	}
	d.users.getUsersByIDs = func(ids []int64) (map[int64]*model.User, error) {
		return map[int64]*model.User{7: {ID: 7, Username: "alice"}}, nil
	}

	rec := d.serve(httptest.NewRequest(http.MethodGet, "/api/tracks/3/comments", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Comments []model.CommentWithAuthor `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Comments, 2)
	assert.Equal(t, "alice", resp.Comments[0].Username)
	assert.Equal(t, "Unknown", resp.Comments[1].Username)
}
