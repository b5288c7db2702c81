package model

import "time"

// Track represents an uploaded song.
type Track struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Title     string    `json:"title"`
	Lyrics    *string   `json:"lyrics"`
	ThemeID   *int64    `json:"theme_id"`
	FileURL   string    `json:"file_url"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TrackWithUploader pairs a track with its uploader's username for list and
// detail responses.
type TrackWithUploader struct {
	Track
	Username string `json:"username"`
}
