package repository

import (
	"gorm.io/gorm"

	"github.com/cppla/socialbbs/models"
)

// LikeRepository stores likes on posts and comments.
type LikeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

func onTarget(t models.Target) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("target_kind = ? AND target_id = ?", string(t.Kind), t.ID)
	}
}

// Find returns the like authorID left on target.
func (r *LikeRepository) Find(authorID uint, target models.Target) (*models.Like, error) {
	var like models.Like
	err := r.db.Scopes(onTarget(target)).Where("author_id = ?", authorID).First(&like).Error
	if err != nil {
		return nil, err
	}
	return &like, nil
}

// Create inserts a like. A second like by the same author on the same target
// fails with gorm.ErrDuplicatedKey.
func (r *LikeRepository) Create(authorID uint, target models.Target) (*models.Like, error) {
	like := models.Like{AuthorID: authorID, TargetID: target.ID, TargetKind: target.Kind}
	if err := r.db.Create(&like).Error; err != nil {
		return nil, err
	}
	return &like, nil
}

// Delete removes the like authorID left on target, if any.
func (r *LikeRepository) Delete(authorID uint, target models.Target) error {
	return r.db.Scopes(onTarget(target)).Where("author_id = ?", authorID).Delete(&models.Like{}).Error
}

// Count returns the number of likes on target.
func (r *LikeRepository) Count(target models.Target) (int64, error) {
	var n int64
	err := r.db.Model(&models.Like{}).Scopes(onTarget(target)).Count(&n).Error
	return n, err
}

// CountByTargets returns like counts keyed by target id. Targets without likes are absent.
func (r *LikeRepository) CountByTargets(kind models.TargetKind, ids []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		TargetID uint
		Total    int64
	}
	err := r.db.Model(&models.Like{}).
		Select("target_id, COUNT(*) AS total").
		Where("target_kind = ? AND target_id IN ?", string(kind), ids).
		Group("target_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TargetID] = row.Total
	}
	return counts, nil
}

// DeleteByTargets removes every like on the given targets of one kind.
func (r *LikeRepository) DeleteByTargets(kind models.TargetKind, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Where("target_kind = ? AND target_id IN ?", string(kind), ids).Delete(&models.Like{}).Error
}
