package models

import "time"

// Comment represents a reply to a post.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"authorId"`
	PostID    uint      `gorm:"index;not null" json:"postId"`
	Content   string    `gorm:"size:450;not null" json:"content"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	LikesCount int64 `gorm:"-" json:"likesCount"`
}
