package repository

import (
	"database/sql"
	"fmt"
	"time"

	"songclub/model"
)

// CommentRepository defines the interface for comment data operations.
type CommentRepository interface {
	CreateComment(comment *model.Comment) (int64, error)
	GetCommentByID(id int64) (*model.Comment, error)
	GetCommentsByTrackID(trackID int64) ([]*model.Comment, error)
	UpdateComment(id int64, content string) error
	DeleteComment(id int64) error
	// CountCommentsByUserSince counts a user's comments created at or after
	// the given instant (inclusive window boundary).
	CountCommentsByUserSince(userID int64, since time.Time) (int, error)
}

// mysqlCommentRepository implements CommentRepository for MySQL.
type mysqlCommentRepository struct {
	db *sql.DB
}

// NewMySQLCommentRepository creates a new mysqlCommentRepository.
func NewMySQLCommentRepository(db *sql.DB) CommentRepository {
	return &mysqlCommentRepository{db: db}
}

const commentColumns = "id, track_id, user_id, content, created_at, updated_at"

// CreateComment adds a new comment to the database.
func (r *mysqlCommentRepository) CreateComment(comment *model.Comment) (int64, error) {
	query := `INSERT INTO comments (track_id, user_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateComment: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(comment.TrackID, comment.UserID, comment.Content, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateComment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateComment: %w", err)
	}
	return id, nil
}

// GetCommentByID retrieves a comment by its ID.
func (r *mysqlCommentRepository) GetCommentByID(id int64) (*model.Comment, error) {
	row := r.db.QueryRow("SELECT "+commentColumns+" FROM comments WHERE id = ?", id)
	comment := &model.Comment{}
	err := row.Scan(&comment.ID, &comment.TrackID, &comment.UserID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // comment not found
		}
		return nil, fmt.Errorf("failed to scan comment by ID %d: %w", id, err)
	}
	return comment, nil
}

// GetCommentsByTrackID retrieves a track's comments, oldest first.
func (r *mysqlCommentRepository) GetCommentsByTrackID(trackID int64) ([]*model.Comment, error) {
	query := "SELECT " + commentColumns + " FROM comments WHERE track_id = ? ORDER BY created_at ASC"
	rows, err := r.db.Query(query, trackID)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments for track ID %d: %w", trackID, err)
	}
	defer rows.Close()

	comments := make([]*model.Comment, 0)
	for rows.Next() {
		comment := &model.Comment{}
		err := rows.Scan(&comment.ID, &comment.TrackID, &comment.UserID, &comment.Content, &comment.CreatedAt, &comment.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment in GetCommentsByTrackID: %w", err)
		}
		comments = append(comments, comment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during comment rows iteration: %w", err)
	}

	return comments, nil
}

// UpdateComment replaces a comment's content. Authorship is checked by the
// caller.
func (r *mysqlCommentRepository) UpdateComment(id int64, content string) error {
	query := "UPDATE comments SET content = ?, updated_at = ? WHERE id = ?"
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateComment: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(content, time.Now(), id); err != nil {
		return fmt.Errorf("failed to execute UpdateComment for comment ID %d: %w", id, err)
	}
	return nil
}

// DeleteComment removes a comment row.
func (r *mysqlCommentRepository) DeleteComment(id int64) error {
	if _, err := r.db.Exec("DELETE FROM comments WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete comment ID %d: %w", id, err)
	}
	return nil
}

// CountCommentsByUserSince counts a user's comments created within the window.
func (r *mysqlCommentRepository) CountCommentsByUserSince(userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM comments WHERE user_id = ? AND created_at >= ?", userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent comments for user ID %d: %w", userID, err)
	}
	return count, nil
}
