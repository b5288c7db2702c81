package repository

import (
	"database/sql"
	"fmt"
	"time"

	"songclub/model"
)

// TrackRepository defines the interface for track data operations.
type TrackRepository interface {
	CreateTrack(track *model.Track) (int64, error)
	GetTrackByID(id int64) (*model.Track, error)
	GetAllTracks() ([]*model.Track, error)
	GetTracksByUserID(userID int64) ([]*model.Track, error)
	GetTracksByThemeID(themeID int64) ([]*model.Track, error)
	UpdateTrack(id int64, title string, lyrics *string, themeID *int64) error
	DeleteTrack(id int64) error
	// CountTracksByUserSince counts a user's tracks created at or after the
	// given instant. The upload rate limit window is inclusive of its
	// boundary timestamp.
	CountTracksByUserSince(userID int64, since time.Time) (int, error)
}

// mysqlTrackRepository implements TrackRepository for MySQL.
type mysqlTrackRepository struct {
	db *sql.DB
}

// NewMySQLTrackRepository creates a new instance of mysqlTrackRepository.
func NewMySQLTrackRepository(db *sql.DB) TrackRepository {
	return &mysqlTrackRepository{db: db}
}

const trackColumns = "id, user_id, title, lyrics, theme_id, file_url, file_size, created_at, updated_at"

// CreateTrack adds a new track to the database.
func (r *mysqlTrackRepository) CreateTrack(track *model.Track) (int64, error) {
	query := `INSERT INTO tracks (user_id, title, lyrics, theme_id, file_url, file_size, created_at, updated_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare statement for CreateTrack: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	res, err := stmt.Exec(track.UserID, track.Title, nullString(track.Lyrics), nullInt64(track.ThemeID),
		track.FileURL, track.FileSize, now, now)
	if err != nil {
		return 0, fmt.Errorf("failed to execute CreateTrack: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for CreateTrack: %w", err)
	}
	return id, nil
}

func scanTrack(scanner interface {
	Scan(dest ...interface{}) error
}) (*model.Track, error) {
	track := &model.Track{}
	var lyrics sql.NullString
	var themeID sql.NullInt64
	err := scanner.Scan(&track.ID, &track.UserID, &track.Title, &lyrics, &themeID,
		&track.FileURL, &track.FileSize, &track.CreatedAt, &track.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lyrics.Valid {
		track.Lyrics = &lyrics.String
	}
	if themeID.Valid {
		track.ThemeID = &themeID.Int64
	}
	return track, nil
}

// GetTrackByID retrieves a track by its ID.
func (r *mysqlTrackRepository) GetTrackByID(id int64) (*model.Track, error) {
	row := r.db.QueryRow("SELECT "+trackColumns+" FROM tracks WHERE id = ?", id)
	track, err := scanTrack(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // track not found
		}
		return nil, fmt.Errorf("failed to scan track by ID %d: %w", id, err)
	}
	return track, nil
}

func (r *mysqlTrackRepository) queryTracks(query string, args ...interface{}) ([]*model.Track, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	tracks := make([]*model.Track, 0)
	for rows.Next() {
		track, err := scanTrack(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track row: %w", err)
		}
		tracks = append(tracks, track)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during track rows iteration: %w", err)
	}

	return tracks, nil
}

// GetAllTracks retrieves the full feed, newest first.
func (r *mysqlTrackRepository) GetAllTracks() ([]*model.Track, error) {
	return r.queryTracks("SELECT " + trackColumns + " FROM tracks ORDER BY created_at DESC")
}

// GetTracksByUserID retrieves a user's tracks, newest first.
func (r *mysqlTrackRepository) GetTracksByUserID(userID int64) ([]*model.Track, error) {
	return r.queryTracks("SELECT "+trackColumns+" FROM tracks WHERE user_id = ? ORDER BY created_at DESC", userID)
}

// GetTracksByThemeID retrieves tracks tagged with a theme, newest first.
func (r *mysqlTrackRepository) GetTracksByThemeID(themeID int64) ([]*model.Track, error) {
	return r.queryTracks("SELECT "+trackColumns+" FROM tracks WHERE theme_id = ? ORDER BY created_at DESC", themeID)
}

// UpdateTrack updates the mutable metadata of a track. Ownership is checked
// by the caller.
func (r *mysqlTrackRepository) UpdateTrack(id int64, title string, lyrics *string, themeID *int64) error {
	query := `UPDATE tracks SET title = ?, lyrics = ?, theme_id = ?, updated_at = ? WHERE id = ?`
	stmt, err := r.db.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare statement for UpdateTrack: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(title, nullString(lyrics), nullInt64(themeID), time.Now(), id); err != nil {
		return fmt.Errorf("failed to execute UpdateTrack for track ID %d: %w", id, err)
	}
	return nil
}

// DeleteTrack removes a track row. Comments cascade at the schema level.
func (r *mysqlTrackRepository) DeleteTrack(id int64) error {
	if _, err := r.db.Exec("DELETE FROM tracks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete track ID %d: %w", id, err)
	}
	return nil
}

// CountTracksByUserSince counts a user's tracks created within the window.
func (r *mysqlTrackRepository) CountTracksByUserSince(userID int64, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM tracks WHERE user_id = ? AND created_at >= ?", userID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent tracks for user ID %d: %w", userID, err)
	}
	return count, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}
