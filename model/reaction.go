package model

import "time"

// Reaction types a user can toggle on a track.
const (
	ReactionLike  = "like"
	ReactionFire  = "fire"
	ReactionHeart = "heart"
)

// ValidReactionType reports whether t is a known reaction type.
func ValidReactionType(t string) bool {
	switch t {
	case ReactionLike, ReactionFire, ReactionHeart:
		return true
	}
	return false
}

// Reaction is a typed toggle a user applies to a track. At most one row
// exists per (track, user, type).
type Reaction struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	TrackID   int64     `gorm:"not null;uniqueIndex:uniq_track_user_type" json:"track_id"`
	UserID    int64     `gorm:"not null;uniqueIndex:uniq_track_user_type" json:"user_id"`
	Type      string    `gorm:"size:16;not null;uniqueIndex:uniq_track_user_type" json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the GORM table name.
func (Reaction) TableName() string {
	return "reactions"
}

// ReactionSummary is the per-track rollup returned by the API.
type ReactionSummary struct {
	Counts map[string]int64 `json:"counts"`
	// Mine lists the authenticated caller's active reaction types. Empty for
	// anonymous callers.
	Mine []string `json:"mine"`
}
