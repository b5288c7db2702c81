package server

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"songclub/cache"
	"songclub/config"
	"songclub/core/auth"
	"songclub/model"

	"github.com/stretchr/testify/require"
)

// Function-field fakes for the repository interfaces. Unset fields panic,
// which surfaces unexpected calls in tests.

type fakeUserRepo struct {
	createUser        func(user *model.User) (int64, error)
	getUserByID       func(id int64) (*model.User, error)
	getUserByUsername func(username string) (*model.User, error)
	getUserByEmail    func(email string) (*model.User, error)
	getUsersByIDs     func(ids []int64) (map[int64]*model.User, error)
	updatePassword    func(userID int64, passwordHash string) error
}

func (f *fakeUserRepo) CreateUser(user *model.User) (int64, error) { return f.createUser(user) }
func (f *fakeUserRepo) GetUserByID(id int64) (*model.User, error)  { return f.getUserByID(id) }
func (f *fakeUserRepo) GetUserByUsername(username string) (*model.User, error) {
	return f.getUserByUsername(username)
}
func (f *fakeUserRepo) GetUserByEmail(email string) (*model.User, error) {
	return f.getUserByEmail(email)
}
func (f *fakeUserRepo) GetUsersByIDs(ids []int64) (map[int64]*model.User, error) {
	return f.getUsersByIDs(ids)
}
func (f *fakeUserRepo) UpdatePassword(userID int64, passwordHash string) error {
	return f.updatePassword(userID, passwordHash)
}

type fakeTrackRepo struct {
	createTrack            func(track *model.Track) (int64, error)
	getTrackByID           func(id int64) (*model.Track, error)
	getAllTracks           func() ([]*model.Track, error)
	getTracksByUserID      func(userID int64) ([]*model.Track, error)
	getTracksByThemeID     func(themeID int64) ([]*model.Track, error)
	updateTrack            func(id int64, title string, lyrics *string, themeID *int64) error
	deleteTrack            func(id int64) error
	countTracksByUserSince func(userID int64, since time.Time) (int, error)
}

func (f *fakeTrackRepo) CreateTrack(track *model.Track) (int64, error) { return f.createTrack(track) }
func (f *fakeTrackRepo) GetTrackByID(id int64) (*model.Track, error)   { return f.getTrackByID(id) }
func (f *fakeTrackRepo) GetAllTracks() ([]*model.Track, error)         { return f.getAllTracks() }
func (f *fakeTrackRepo) GetTracksByUserID(userID int64) ([]*model.Track, error) {
	return f.getTracksByUserID(userID)
}
func (f *fakeTrackRepo) GetTracksByThemeID(themeID int64) ([]*model.Track, error) {
	return f.getTracksByThemeID(themeID)
}
func (f *fakeTrackRepo) UpdateTrack(id int64, title string, lyrics *string, themeID *int64) error {
	return f.updateTrack(id, title, lyrics, themeID)
}
func (f *fakeTrackRepo) DeleteTrack(id int64) error { return f.deleteTrack(id) }
func (f *fakeTrackRepo) CountTracksByUserSince(userID int64, since time.Time) (int, error) {
	return f.countTracksByUserSince(userID, since)
}

type fakeCommentRepo struct {
	createComment            func(comment *model.Comment) (int64, error)
	getCommentByID           func(id int64) (*model.Comment, error)
	getCommentsByTrackID     func(trackID int64) ([]*model.Comment, error)
	updateComment            func(id int64, content string) error
	deleteComment            func(id int64) error
	countCommentsByUserSince func(userID int64, since time.Time) (int, error)
}

func (f *fakeCommentRepo) CreateComment(comment *model.Comment) (int64, error) {
	return f.createComment(comment)
}
func (f *fakeCommentRepo) GetCommentByID(id int64) (*model.Comment, error) {
	return f.getCommentByID(id)
}
func (f *fakeCommentRepo) GetCommentsByTrackID(trackID int64) ([]*model.Comment, error) {
	return f.getCommentsByTrackID(trackID)
}
func (f *fakeCommentRepo) UpdateComment(id int64, content string) error {
	return f.updateComment(id, content)
}
func (f *fakeCommentRepo) DeleteComment(id int64) error { return f.deleteComment(id) }
func (f *fakeCommentRepo) CountCommentsByUserSince(userID int64, since time.Time) (int, error) {
	return f.countCommentsByUserSince(userID, since)
}

type fakeThemeRepo struct {
	getAllThemes func() ([]model.Theme, error)
	getThemeByID func(id int64) (*model.Theme, error)
}

func (f *fakeThemeRepo) GetAllThemes() ([]model.Theme, error)       { return f.getAllThemes() }
func (f *fakeThemeRepo) GetThemeByID(id int64) (*model.Theme, error) { return f.getThemeByID(id) }

type fakeReactionRepo struct {
	toggleReaction      func(trackID, userID int64, reactionType string) (bool, error)
	countsByTrackID     func(trackID int64) (map[string]int64, error)
	typesByTrackAndUser func(trackID, userID int64) ([]string, error)
}

func (f *fakeReactionRepo) ToggleReaction(trackID, userID int64, reactionType string) (bool, error) {
	return f.toggleReaction(trackID, userID, reactionType)
}
func (f *fakeReactionRepo) CountsByTrackID(trackID int64) (map[string]int64, error) {
	return f.countsByTrackID(trackID)
}
func (f *fakeReactionRepo) TypesByTrackAndUser(trackID, userID int64) ([]string, error) {
	return f.typesByTrackAndUser(trackID, userID)
}

// fakeStore records blob operations.
type fakeStore struct {
	puts    []string
	removes []string
	putErr  error
}

func (f *fakeStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.puts = append(f.puts, key)
	return nil
}

func (f *fakeStore) Remove(ctx context.Context, key string) error {
	f.removes = append(f.removes, key)
	return nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "http://files.local/tracks/" + key
}

func (f *fakeStore) KeyFromURL(url string) string {
	const prefix = "http://files.local/tracks/"
	if len(url) <= len(prefix) || url[:len(prefix)] != prefix {
		return ""
	}
	return url[len(prefix):]
}

// fakeDenylist is an in-memory TokenDenylist.
type fakeDenylist struct {
	revoked map[string]bool
}

func (f *fakeDenylist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	f.revoked[token] = true
	return nil
}

func (f *fakeDenylist) Revoked(ctx context.Context, token string) (bool, error) {
	return f.revoked[token], nil
}

// deps bundles everything a handler under test needs.
type deps struct {
	users     *fakeUserRepo
	tracks    *fakeTrackRepo
	comments  *fakeCommentRepo
	themes    *fakeThemeRepo
	reactions *fakeReactionRepo
	store     *fakeStore
	denylist  *fakeDenylist
	cfg       *config.Config
	tokens    *auth.TokenManager
	handler   *APIHandler
}

func newTestHandler(t *testing.T) *deps {
	t.Helper()

	cfg := &config.Config{
		MaxUploadBytes:   50 * 1024 * 1024,
		UploadRateLimit:  5,
		CommentRateLimit: 10,
		RateLimitWindow:  time.Hour,
	}

	d := &deps{
		users:     &fakeUserRepo{},
		tracks:    &fakeTrackRepo{},
		comments:  &fakeCommentRepo{},
		themes:    &fakeThemeRepo{},
		reactions: &fakeReactionRepo{},
		store:     &fakeStore{},
		denylist:  &fakeDenylist{revoked: make(map[string]bool)},
		cfg:       cfg,
		tokens:    auth.NewTokenManager("test-secret", time.Hour),
	}
	d.handler = NewAPIHandler(d.users, d.tracks, d.comments, d.themes, d.reactions,
		d.store, cache.NewThemeCache(nil), d.tokens, nil, d.denylist, cfg)
	return d
}

// bearer returns an Authorization header value for the given identity.
func (d *deps) bearer(t *testing.T, userID int64, username string) string {
	t.Helper()
	token, err := d.tokens.Generate(userID, username)
	require.NoError(t, err)
	return "Bearer " + token
}

// serve routes the request through the full router.
func (d *deps) serve(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Router(d.handler).ServeHTTP(rec, req)
	return rec
}

// multipartUpload builds an upload-track request body. fileType is set as
// the part's Content-Type header.
func multipartUpload(t *testing.T, fields map[string]string, fileName, fileType string, fileContent []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}

	if fileName != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
		header.Set("Content-Type", fileType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(fileContent)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}
