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

func reactionFixture(d *deps) {
	d.tracks.getTrackByID = func(id int64) (*model.Track, error) {
		return &model.Track{ID: id, UserID: 2, Title: "Some Track"}, nil
	}
	d.reactions.countsByTrackID = func(trackID int64) (map[string]int64, error) {
		return map[string]int64{model.ReactionLike: 3, model.ReactionFire: 1}, nil
	}
	d.reactions.typesByTrackAndUser = func(trackID, userID int64) ([]string, error) {
		return []string{model.ReactionLike}, nil
	}
}

func TestToggleReaction_UnknownType(t *testing.T) {
	d := newTestHandler(t)

	req := jsonRequest(http.MethodPost, "/api/tracks/3/reactions", `{"type":"sparkle"}`)
	req.Header.Set("Authorization", d.bearer(t, 7, "alice"))

	rec := d.serve(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Unknown reaction type"}`, rec.Body.String())
}

func TestToggleReaction_Toggle(t *testing.T) {
	d := newTestHandler(t)
	reactionFixture(d)

	var toggledType string
	d.reactions.toggleReaction = func(trackID, userID int64, reactionType string) (bool, error) {
		toggledType = reactionType
		return true, nil
	}

	req := jsonRequest(http.MethodPost, "/api/tracks/3/reactions", `{"type":"fire"}`)
	req.Header.Set("Authorization", d.bearer(t, 7, "alice"))

	rec := d.serve(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, model.ReactionFire, toggledType)

	var resp struct {
		Active    bool                  `json:"active"`
		Reactions model.ReactionSummary `json:"reactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Active)
	assert.Equal(t, int64(3), resp.Reactions.Counts[model.ReactionLike])
	assert.Equal(t, []string{model.ReactionLike}, resp.Reactions.Mine)
}

func TestGetReactions_Anonymous(t *testing.T) {
	d := newTestHandler(t)
	reactionFixture(d)

	rec := d.serve(httptest.NewRequest(http.MethodGet, "/api/tracks/3/reactions", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Reactions model.ReactionSummary `json:"reactions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Reactions.Counts[model.ReactionFire])
	assert.Empty(t, resp.Reactions.Mine, "anonymous callers have no active set")
}
