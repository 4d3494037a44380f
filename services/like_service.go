package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/repository"
)

// LikeResult reports the state after a toggle.
type LikeResult struct {
	Liked      bool  `json:"liked"`
	LikesCount int64 `json:"likesCount"`
}

// LikeService toggles likes on posts and comments.
type LikeService struct {
	db *gorm.DB
}

func NewLikeService(db *gorm.DB) *LikeService {
	return &LikeService{db: db}
}

// LikePost toggles userID's like on postID.
func (s *LikeService) LikePost(ctx context.Context, userID, postID uint) (*LikeResult, error) {
	db := s.db.WithContext(ctx)
	if _, err := repository.NewPostRepository(db).FindByID(postID); err != nil {
		return nil, orNotFound(err, postNotFound(postID))
	}
	return s.toggle(db, userID, models.PostTarget(postID))
}

// LikeComment toggles userID's like on commentID, which must belong to postID.
func (s *LikeService) LikeComment(ctx context.Context, userID, postID, commentID uint) (*LikeResult, error) {
	db := s.db.WithContext(ctx)
	if _, err := repository.NewCommentRepository(db).FindInPost(postID, commentID); err != nil {
		return nil, orNotFound(err, commentNotFound(commentID))
	}
	return s.toggle(db, userID, models.CommentTarget(commentID))
}

// toggle is not transactional. A concurrent toggle by the same user can race;
// losing the insert race counts as liked.
func (s *LikeService) toggle(db *gorm.DB, userID uint, target models.Target) (*LikeResult, error) {
	likes := repository.NewLikeRepository(db)
	result := &LikeResult{}

	_, err := likes.Find(userID, target)
	switch {
	case err == nil:
		if err := likes.Delete(userID, target); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if _, err := likes.Create(userID, target); err != nil {
			if _, findErr := likes.Find(userID, target); findErr != nil {
				return nil, err
			}
		}
		result.Liked = true
	default:
		return nil, err
	}

	count, err := likes.Count(target)
	if err != nil {
		return nil, err
	}
	result.LikesCount = count
	return result, nil
}
