package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/utils"
)

func newestCommentsFirst(db *gorm.DB) *gorm.DB {
	return db.Order("comments.created_at DESC").Order("comments.id DESC")
}

// CommentRepository stores comments on posts.
type CommentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

func (r *CommentRepository) Create(comment *models.Comment) error {
	return r.db.Omit(clause.Associations).Create(comment).Error
}

// FindInPost returns comment id when it belongs to postID.
func (r *CommentRepository) FindInPost(postID, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.Where("id = ? AND post_id = ?", id, postID).First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// FindOwned returns comment id on postID written by authorID.
func (r *CommentRepository) FindOwned(authorID, postID, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.Where("id = ? AND post_id = ? AND author_id = ?", id, postID, authorID).First(&comment).Error
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// ListByPost returns a page of comments, newest first, with authors and like counts.
func (r *CommentRepository) ListByPost(postID uint, page utils.Page) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.Preload("Author", activeUsers).
		Where("post_id = ?", postID).
		Scopes(newestCommentsFirst, paginate(page)).
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, r.decorate(comments)
}

// Latest returns up to n most recent comments on postID.
func (r *CommentRepository) Latest(postID uint, n int) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := r.db.Preload("Author", activeUsers).
		Where("post_id = ?", postID).
		Scopes(newestCommentsFirst).
		Limit(n).
		Find(&comments).Error
	return comments, err
}

// CountByPosts returns comment counts keyed by post id.
func (r *CommentRepository) CountByPosts(postIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(postIDs))
	if len(postIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		PostID uint
		Total  int64
	}
	err := r.db.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS total").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.PostID] = row.Total
	}
	return counts, nil
}

// IDsByPost lists the ids of every comment on postID.
func (r *CommentRepository) IDsByPost(postID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &ids).Error
	return ids, err
}

// UpdateContent replaces the comment body.
func (r *CommentRepository) UpdateContent(comment *models.Comment, content string) error {
	if err := r.db.Model(comment).Omit(clause.Associations).Update("content", content).Error; err != nil {
		return err
	}
	comment.Content = content
	return nil
}

func (r *CommentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Comment{}, id).Error
}

// DeleteByIDs removes the given comments.
func (r *CommentRepository) DeleteByIDs(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("id IN ?", ids).Delete(&models.Comment{}).Error
}

// decorate fills like counts in place.
func (r *CommentRepository) decorate(comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}
	ids := make([]uint, len(comments))
	for i := range comments {
		ids[i] = comments[i].ID
	}
	counts, err := NewLikeRepository(r.db).CountByTargets(models.TargetComment, ids)
	if err != nil {
		return err
	}
	for i := range comments {
		comments[i].LikesCount = counts[comments[i].ID]
	}
	return nil
}
