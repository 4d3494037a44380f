package models

import "time"

// TargetKind discriminates what a Like points at.
type TargetKind string

const (
	TargetPost    TargetKind = "Post"
	TargetComment TargetKind = "Comment"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	return k == TargetPost || k == TargetComment
}

// Target is a tagged reference to a likeable entity.
type Target struct {
	Kind TargetKind
	ID   uint
}

// PostTarget returns the target for a post.
func PostTarget(id uint) Target { return Target{Kind: TargetPost, ID: id} }

// CommentTarget returns the target for a comment.
func CommentTarget(id uint) Target { return Target{Kind: TargetComment, ID: id} }

// Like records that a user liked a post or a comment.
// At most one like exists per (author, target).
type Like struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	AuthorID   uint       `gorm:"not null;uniqueIndex:idx_like_author_target" json:"authorId"`
	TargetID   uint       `gorm:"not null;uniqueIndex:idx_like_author_target;index:idx_like_target" json:"targetId"`
	TargetKind TargetKind `gorm:"size:16;not null;uniqueIndex:idx_like_author_target;index:idx_like_target" json:"onModel"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Target returns the tagged reference this like points at.
func (l Like) Target() Target {
	return Target{Kind: l.TargetKind, ID: l.TargetID}
}

// All lists every persisted model, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserFollowing{},
		&UserFollower{},
		&Post{},
		&Comment{},
		&Like{},
	}
}
