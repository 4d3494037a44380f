package models

import "time"

// ContentMaxLength bounds post and comment bodies, in characters.
const ContentMaxLength = 450

// Post represents a short post created by a user, optionally with one image.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AuthorID  uint      `gorm:"index;not null" json:"authorId"`
	Content   string    `gorm:"size:450;not null" json:"content"`
	Image     string    `gorm:"size:512" json:"image,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Author    *User     `gorm:"foreignKey:AuthorID" json:"author,omitempty"`

	// Derived fields, filled by the repository when listing.
	LikesCount      int64     `gorm:"-" json:"likesCount"`
	CommentsCount   int64     `gorm:"-" json:"commentsCount"`
	CommentsPreview []Comment `gorm:"-" json:"commentsPreview"`
}
