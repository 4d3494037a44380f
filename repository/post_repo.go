package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/utils"
)

// PreviewSize is how many recent comments ride along with each listed post.
const PreviewSize = 5

func newestPostsFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}

// PostRepository stores posts.
type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Create(post *models.Post) error {
	if err := r.db.Omit(clause.Associations).Create(post).Error; err != nil {
		return err
	}
	post.CommentsPreview = []models.Comment{}
	return nil
}

// FindByID returns a post without decoration.
func (r *PostRepository) FindByID(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindOwned returns post id written by authorID, without decoration.
func (r *PostRepository) FindOwned(authorID, id uint) (*models.Post, error) {
	var post models.Post
	if err := r.db.Where("id = ? AND author_id = ?", id, authorID).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// FindWithCounts returns post id written by authorID with author, counts and preview.
func (r *PostRepository) FindWithCounts(authorID, id uint) (*models.Post, error) {
	posts := []models.Post{}
	err := r.db.Preload("Author", activeUsers).
		Where("id = ? AND author_id = ?", id, authorID).
		Limit(1).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	if err := r.decorate(posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// ListByAuthor returns a decorated page of authorID's posts, newest first.
func (r *PostRepository) ListByAuthor(authorID uint, page utils.Page) ([]models.Post, error) {
	return r.ListByAuthors([]uint{authorID}, page)
}

// ListByAuthors returns a decorated page of posts by any of authorIDs, newest first.
// Posts by deactivated authors are skipped.
func (r *PostRepository) ListByAuthors(authorIDs []uint, page utils.Page) ([]models.Post, error) {
	posts := []models.Post{}
	if len(authorIDs) == 0 {
		return posts, nil
	}
	authors := activeUsers(r.db.Model(&models.User{})).
		Where("users.id IN ?", authorIDs).
		Select("users.id")
	err := r.db.Preload("Author", activeUsers).
		Where("author_id IN (?)", authors).
		Scopes(newestPostsFirst, paginate(page)).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, r.decorate(posts)
}

// UpdateContent replaces the post body.
func (r *PostRepository) UpdateContent(post *models.Post, content string) error {
	if err := r.db.Model(post).Omit(clause.Associations).Update("content", content).Error; err != nil {
		return err
	}
	post.Content = content
	return nil
}

func (r *PostRepository) Delete(id uint) error {
	return r.db.Delete(&models.Post{}, id).Error
}

// decorate fills like counts, comment counts and the comment preview in place.
func (r *PostRepository) decorate(posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]uint, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}

	likes := NewLikeRepository(r.db)
	comments := NewCommentRepository(r.db)

	likeCounts, err := likes.CountByTargets(models.TargetPost, ids)
	if err != nil {
		return err
	}
	commentCounts, err := comments.CountByPosts(ids)
	if err != nil {
		return err
	}

	var previewIDs []uint
	for i := range posts {
		p := &posts[i]
		p.LikesCount = likeCounts[p.ID]
		p.CommentsCount = commentCounts[p.ID]
		p.CommentsPreview = []models.Comment{}
		if p.CommentsCount == 0 {
			continue
		}
		preview, err := comments.Latest(p.ID, PreviewSize)
		if err != nil {
			return err
		}
		p.CommentsPreview = preview
		for _, c := range preview {
			previewIDs = append(previewIDs, c.ID)
		}
	}

	commentLikes, err := likes.CountByTargets(models.TargetComment, previewIDs)
	if err != nil {
		return err
	}
	for i := range posts {
		for j := range posts[i].CommentsPreview {
			c := &posts[i].CommentsPreview[j]
			c.LikesCount = commentLikes[c.ID]
		}
	}
	return nil
}
