package model

import "time"

// User represents a registered account.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // never exposed in API responses
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Profile is the public subset of a user, created implicitly at sign-up.
type Profile struct {
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile returns the public view of the user.
func (u *User) Profile() Profile {
	return Profile{
		UserID:    u.ID,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
