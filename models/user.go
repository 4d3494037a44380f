package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles a user can hold.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
)

// PasswordChange tracks the reset token and the epoch embedded in session tokens.
// Rotating Epoch invalidates every token issued before the change.
type PasswordChange struct {
	Token     string `gorm:"size:64"`
	ExpiresAt *time.Time
	Epoch     string `gorm:"size:36;not null"`
}

// User represents an account. Passwords are stored as bcrypt hashes only.
// Deactivated users are soft deleted: the row stays but every read skips it.
type User struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"size:40;not null;index" json:"name"`
	Email          string         `gorm:"size:40;not null;uniqueIndex" json:"email"`
	PasswordHash   string         `gorm:"size:255;not null" json:"-"`
	Birthdate      time.Time      `gorm:"not null" json:"birthdate"`
	Country        string         `gorm:"size:20;not null;default:Earth" json:"country"`
	Status         string         `gorm:"size:100;not null" json:"status"`
	Image          string         `gorm:"size:512" json:"image"`
	Role           string         `gorm:"size:16;not null;default:user" json:"role"`
	IsDeactivated  bool           `gorm:"not null;default:false;index" json:"-"`
	PasswordChange PasswordChange `gorm:"embedded;embeddedPrefix:password_change_" json:"-"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`

	// Following and Followers are filled by the repository from the edge tables.
	Following []uint `gorm:"-" json:"following"`
	Followers []uint `gorm:"-" json:"followers"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	if u.Role == "" {
		u.Role = RoleUser
	}
	if u.PasswordChange.Epoch == "" {
		u.PasswordChange.Epoch = uuid.NewString()
	}
	return nil
}

// IsModerator reports whether the user holds the moderator role.
func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

// UserFollowing is the "A follows B" edge, stored on A's side.
type UserFollowing struct {
	UserID      uint      `gorm:"primaryKey;autoIncrement:false"`
	FollowingID uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt   time.Time `gorm:"index"`
}

// TableName pins the edge table name.
func (UserFollowing) TableName() string { return "user_following" }

// UserFollower mirrors UserFollowing on B's side: "B is followed by A".
type UserFollower struct {
	UserID     uint      `gorm:"primaryKey;autoIncrement:false"`
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt  time.Time `gorm:"index"`
}

// TableName pins the edge table name.
func (UserFollower) TableName() string { return "user_followers" }
