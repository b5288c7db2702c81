package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"songclub/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedFixture(d *deps) {
	d.tracks.getAllTracks = func() ([]*model.Track, error) {
		return []*model.Track{
			{ID: 3, UserID: 1, Title: "Midnight Rain"},
			{ID: 2, UserID: 2, Title: "Sunrise"},
			{ID: 1, UserID: 1, Title: "Rainy Day Blues"},
		}, nil
	}
	d.users.getUsersByIDs = func(ids []int64) (map[int64]*model.User, error) {
		return map[int64]*model.User{
			1: {ID: 1, Username: "alice"},
			2: {ID: 2, Username: "bob"},
		}, nil
	}
}

func getTracks(t *testing.T, d *deps, path string) []model.TrackWithUploader {
	t.Helper()
	rec := d.serve(httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Tracks []model.TrackWithUploader `json:"tracks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Tracks
}

func TestGetTracks_FullFeed(t *testing.T) {
	d := newTestHandler(t)
	feedFixture(d)

	tracks := getTracks(t, d, "/api/tracks")

	require.Len(t, tracks, 3)
	// Repository ordering (newest first) comes through untouched.
	assert.Equal(t, int64(3), tracks[0].ID)
	assert.Equal(t, int64(2), tracks[1].ID)
	assert.Equal(t, int64(1), tracks[2].ID)
	assert.Equal(t, "alice", tracks[0].Username)
	assert.Equal(t, "bob", tracks[1].Username)
}

func TestGetTracks_SearchByTitle(t *testing.T) {
	d := newTestHandler(t)
	feedFixture(d)

	tracks := getTracks(t, d, "/api/tracks?q=RAIN")

	require.Len(t, tracks, 2)
	assert.Equal(t, "Midnight Rain", tracks[0].Title)
	assert.Equal(t, "Rainy Day Blues", tracks[1].Title)
}

func TestGetTracks_SearchByUploader(t *testing.T) {
	d := newTestHandler(t)
	feedFixture(d)

	tracks := getTracks(t, d, "/api/tracks?q=bob")

	require.Len(t, tracks, 1)
	assert.Equal(t, "Sunrise", tracks[0].Title)
}

func TestGetTracks_SearchNoMatch(t *testing.T) {
	d := newTestHandler(t)
	feedFixture(d)

	tracks := getTracks(t, d, "/api/tracks?q=uknown_user_xyz")

	assert.Empty(t, tracks)
}

func TestGetTrack_Detail(t *testing.T) {
	d := newTestHandler(t)
	themeID := int64(4)
	d.tracks.getTrackByID = func(id int64) (*model.Track, error) {
		return &model.Track{ID: id, UserID: 1, Title: "Midnight Rain", ThemeID: &themeID}, nil
	}
	d.users.getUsersByIDs = func(ids []int64) (map[int64]*model.User, error) {
		return map[int64]*model.User{1: {ID: 1, Username: "alice"}}, nil
	}
	d.themes.getThemeByID = func(id int64) (*model.Theme, error) {
		return &model.Theme{ID: id, Name: "Jazz"}, nil
	}
	d.comments.getCommentsByTrackID = func(trackID int64) ([]*model.Comment, error) {
		return []*model.Comment{{ID: 1}, {ID: 2}}, nil
	}

	rec := d.serve(httptest.NewRequest(http.MethodGet, "/api/tracks/3", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Track struct {
			model.TrackWithUploader
			ThemeName    string `json:"theme_name"`
			CommentCount int    `json:"comment_count"`
		} `json:"track"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice", resp.Track.Username)
	assert.Equal(t, "Jazz", resp.Track.ThemeName)
	assert.Equal(t, 2, resp.Track.CommentCount)
}

func TestGetTrack_NotFound(t *testing.T) {
	d := newTestHandler(t)
	d.tracks.getTrackByID = func(id int64) (*model.Track, error) { return nil, nil }

	rec := d.serve(httptest.NewRequest(http.MethodGet, "/api/tracks/99", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Track not found"}`, rec.Body.String())
}

func TestUpdateTrack_OwnerOnly(t *testing.T) {
	d := newTestHandler(t)
	d.tracks.getTrackByID = func(id int64) (*model.Track, error) {
		return &model.Track{ID: id, UserID: 99, Title: "Not Mine"}, nil
	}

	req := jsonRequest(http.MethodPut, "/api/tracks/3", `{"title":"Stolen"}`)
	req.Header.Set("Authorization", d.bearer(t, 7, "alice"))

	rec := d.serve(req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDeleteTrack_RemovesStoredAudio(t *testing.T) {
	d := newTestHandler(t)
	d.tracks.getTrackByID = func(id int64) (*model.Track, error) {
		return &model.Track{ID: id, UserID: 7, Title: "Mine",
			FileURL: "http://files.local/tracks/7/123-song.mp3"}, nil
	}
	deleted := false
	d.tracks.deleteTrack = func(id int64) error {
		deleted = true
		return nil
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/tracks/3", nil)
	req.Header.Set("Authorization", d.bearer(t, 7, "alice"))

	rec := d.serve(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, deleted)
	require.Len(t, d.store.removes, 1)
	assert.Equal(t, "7/123-song.mp3", d.store.removes[0])
}
