package models

import "time"

// User is a registered identity. RefreshToken holds the single currently valid
// refresh token; nil means there is no refreshable session.
type User struct {
	ID           string     `db:"id" bson:"_id" json:"id"`
	Email        string     `db:"email" bson:"email" json:"email"`
	PasswordHash string     `db:"password_hash" bson:"password_hash" json:"-"`
	Name         string     `db:"name" bson:"name" json:"name"`
	ProfileImage string     `db:"profile_image" bson:"profile_image" json:"profile_image"`
	RefreshToken *string    `db:"refresh_token" bson:"refresh_token,omitempty" json:"-"`
	LastLogin    *time.Time `db:"last_login" bson:"last_login,omitempty" json:"last_login,omitempty"`
	CreatedAt    time.Time  `db:"created_at" bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" bson:"updated_at" json:"updated_at"`
}

// UpdateProfileRequest carries the mutable profile fields. Empty values are left unchanged.
type UpdateProfileRequest struct {
	Name         string `json:"name" validate:"omitempty,min=1,max=120"`
	Email        string `json:"email" validate:"omitempty,email"`
	ProfileImage string `json:"profile_image" validate:"omitempty,max=2048"`
}

// OnlineUsers lists identities with at least one live connection.
type OnlineUsers struct {
	UserIDs []string `json:"user_ids"`
	Count   int      `json:"count"`
}
