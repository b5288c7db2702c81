package model

import "time"

// MaxCommentLength is the cap on trimmed comment content.
const MaxCommentLength = 500

// Comment represents a comment on a track.
type Comment struct {
	ID        int64     `json:"id"`
	TrackID   int64     `json:"track_id"`
	UserID    int64     `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentWithAuthor pairs a comment with the author's username.
type CommentWithAuthor struct {
	Comment
	Username string `json:"username"`
}
