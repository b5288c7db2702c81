package repository

import (
	"errors"
	"fmt"

	"songclub/model"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ReactionRepository defines the interface for reaction data operations.
type ReactionRepository interface {
	// ToggleReaction inserts the (track, user, type) row when absent and
	// deletes it when present. Returns true when the reaction is now active.
	ToggleReaction(trackID, userID int64, reactionType string) (bool, error)
	CountsByTrackID(trackID int64) (map[string]int64, error)
	TypesByTrackAndUser(trackID, userID int64) ([]string, error)
}

// gormReactionRepository implements ReactionRepository on the GORM connection.
type gormReactionRepository struct {
	db *gorm.DB
}

// NewGormReactionRepository creates a new gormReactionRepository.
func NewGormReactionRepository(db *gorm.DB) ReactionRepository {
	return &gormReactionRepository{db: db}
}

// ToggleReaction flips a user's reaction of the given type on a track.
func (r *gormReactionRepository) ToggleReaction(trackID, userID int64, reactionType string) (bool, error) {
	var existing model.Reaction
	err := r.db.Where("track_id = ? AND user_id = ? AND type = ?", trackID, userID, reactionType).
		First(&existing).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		reaction := model.Reaction{TrackID: trackID, UserID: userID, Type: reactionType}
		if err := r.db.Create(&reaction).Error; err != nil {
			// A concurrent toggle can insert the row between the lookup and
			// the create; the unique index reports it as a duplicate. The row
			// exists now, so this toggle removes it.
			var mysqlErr *mysql.MySQLError
			if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
				delErr := r.db.Where("track_id = ? AND user_id = ? AND type = ?", trackID, userID, reactionType).
					Delete(&model.Reaction{}).Error
				if delErr != nil {
					return false, fmt.Errorf("failed to delete reaction: %w", delErr)
				}
				return false, nil
			}
			return false, fmt.Errorf("failed to create reaction: %w", err)
		}
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query reaction: %w", err)
	}

	if err := r.db.Delete(&existing).Error; err != nil {
		return false, fmt.Errorf("failed to delete reaction: %w", err)
	}
	return false, nil
}

// CountsByTrackID returns per-type reaction counts for a track.
func (r *gormReactionRepository) CountsByTrackID(trackID int64) (map[string]int64, error) {
	type row struct {
		Type  string
		Count int64
	}
	var rows []row
	err := r.db.Model(&model.Reaction{}).
		Select("type, COUNT(*) as count").
		Where("track_id = ?", trackID).
		Group("type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count reactions for track ID %d: %w", trackID, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Type] = r.Count
	}
	return counts, nil
}

// TypesByTrackAndUser returns the reaction types a user has active on a track.
func (r *gormReactionRepository) TypesByTrackAndUser(trackID, userID int64) ([]string, error) {
	var types []string
	err := r.db.Model(&model.Reaction{}).
		Where("track_id = ? AND user_id = ?", trackID, userID).
		Order("type ASC").
		Pluck("type", &types).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query reactions for track ID %d: %w", trackID, err)
	}
	return types, nil
}
