package repository

import (
	"testing"
	"time"

	"songclub/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCommentTestRepository(t *testing.T) (CommentRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewMySQLCommentRepository(db), mock, func() { db.Close() }
}

var commentRowColumns = []string{"id", "track_id", "user_id", "content", "created_at", "updated_at"}

func TestCreateComment(t *testing.T) {
	repo, mock, cleanup := setupCommentTestRepository(t)
	defer cleanup()

	mock.ExpectPrepare("INSERT INTO comments").
		ExpectExec().
		WithArgs(int64(3), int64(7), "nice track", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := repo.CreateComment(&model.Comment{TrackID: 3, UserID: 7, Content: "nice track"})

	require.NoError(t, err)
	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCommentByID_NotFound(t *testing.T) {
	repo, mock, cleanup := setupCommentTestRepository(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM comments WHERE id = ?").
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(commentRowColumns))

	comment, err := repo.GetCommentByID(99)

	require.NoError(t, err)
	assert.Nil(t, comment)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCommentsByTrackID(t *testing.T) {
	repo, mock, cleanup := setupCommentTestRepository(t)
	defer cleanup()

	now := time.Now()
	rows := sqlmock.NewRows(commentRowColumns).
		AddRow(1, 3, 7, "first", now.Add(-time.Minute), now.Add(-time.Minute)).
		AddRow(2, 3, 8, "second", now, now)

	mock.ExpectQuery("SELECT (.+) FROM comments WHERE track_id = \\? ORDER BY created_at ASC").
		WithArgs(int64(3)).
		WillReturnRows(rows)

	comments, err := repo.GetCommentsByTrackID(3)

	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
	assert.Equal(t, "second", comments[1].Content)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountCommentsByUserSince(t *testing.T) {
	repo, mock, cleanup := setupCommentTestRepository(t)
	defer cleanup()

	since := time.Now().Add(-time.Hour)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments WHERE user_id = \? AND created_at >= \?`).
		WithArgs(int64(7), since).
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(10))

	count, err := repo.CountCommentsByUserSince(7, since)

	require.NoError(t, err)
	assert.Equal(t, 10, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateComment(t *testing.T) {
	repo, mock, cleanup := setupCommentTestRepository(t)
	defer cleanup()

	mock.ExpectPrepare("UPDATE comments SET content").
		ExpectExec().
		WithArgs("edited", sqlmock.AnyArg(), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateComment(11, "edited")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
