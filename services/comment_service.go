package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/repository"
)

// CommentService creates, edits and deletes comments.
type CommentService struct {
	db *gorm.DB
}

func NewCommentService(db *gorm.DB) *CommentService {
	return &CommentService{db: db}
}

// CreateComment adds a comment by authorID to postID.
func (s *CommentService) CreateComment(ctx context.Context, authorID, postID uint, content string) (*models.Comment, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	db := s.db.WithContext(ctx)
	if _, err := repository.NewPostRepository(db).FindByID(postID); err != nil {
		return nil, orNotFound(err, postNotFound(postID))
	}
	comment := &models.Comment{AuthorID: authorID, PostID: postID, Content: content}
	if err := repository.NewCommentRepository(db).Create(comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// UpdateComment replaces the content of authorID's comment.
func (s *CommentService) UpdateComment(ctx context.Context, authorID, postID, commentID uint, content string) (*models.Comment, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	comments := repository.NewCommentRepository(s.db.WithContext(ctx))
	comment, err := comments.FindOwned(authorID, postID, commentID)
	if err != nil {
		return nil, orNotFound(err, ownedCommentNotFound(commentID, authorID))
	}
	if err := comments.UpdateContent(comment, content); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment removes authorID's comment and every like on it in one transaction.
func (s *CommentService) DeleteComment(ctx context.Context, authorID, postID, commentID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		comments := repository.NewCommentRepository(tx)
		comment, err := comments.FindOwned(authorID, postID, commentID)
		if err != nil {
			return orNotFound(err, ownedCommentNotFound(commentID, authorID))
		}
		if err := repository.NewLikeRepository(tx).DeleteByTargets(models.TargetComment, []uint{comment.ID}); err != nil {
			return err
		}
		return comments.Delete(comment.ID)
	})
}
