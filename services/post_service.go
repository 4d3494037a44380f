package services

import (
	"context"
	"mime/multipart"

	"gorm.io/gorm"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/repository"
	"github.com/cppla/socialbbs/storage"
)

// PostService creates, edits and deletes posts.
type PostService struct {
	db     *gorm.DB
	assets storage.AssetStore
}

func NewPostService(db *gorm.DB, assets storage.AssetStore) *PostService {
	return &PostService{db: db, assets: assets}
}

// CreatePost stores a post for authorID, uploading image first when present.
func (s *PostService) CreatePost(ctx context.Context, authorID uint, content string, image *multipart.FileHeader) (*models.Post, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	post := &models.Post{AuthorID: authorID, Content: content}
	if image != nil {
		ref, err := s.assets.Upload(ctx, "posts", image)
		if err != nil {
			return nil, imageError(err)
		}
		post.Image = ref
	}

	if err := repository.NewPostRepository(s.db.WithContext(ctx)).Create(post); err != nil {
		removeAsset(s.assets, post.Image)
		return nil, err
	}
	return post, nil
}

// GetPost returns one decorated post by authorID.
func (s *PostService) GetPost(ctx context.Context, authorID, postID uint) (*models.Post, error) {
	post, err := repository.NewPostRepository(s.db.WithContext(ctx)).FindWithCounts(authorID, postID)
	if err != nil {
		return nil, orNotFound(err, ownedPostNotFound(postID, authorID))
	}
	return post, nil
}

// UpdatePost replaces the content of authorID's post.
func (s *PostService) UpdatePost(ctx context.Context, authorID, postID uint, content string) (*models.Post, error) {
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}
	posts := repository.NewPostRepository(s.db.WithContext(ctx))
	post, err := posts.FindOwned(authorID, postID)
	if err != nil {
		return nil, orNotFound(err, ownedPostNotFound(postID, authorID))
	}
	if err := posts.UpdateContent(post, content); err != nil {
		return nil, err
	}
	return posts.FindWithCounts(authorID, postID)
}

// DeletePost removes authorID's post together with its comments and every like
// on the post or those comments. The cascade commits or fails as a whole. The
// stored image is removed afterwards in the background.
func (s *PostService) DeletePost(ctx context.Context, authorID, postID uint) error {
	var image string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posts := repository.NewPostRepository(tx)
		comments := repository.NewCommentRepository(tx)
		likes := repository.NewLikeRepository(tx)

		post, err := posts.FindOwned(authorID, postID)
		if err != nil {
			return orNotFound(err, ownedPostNotFound(postID, authorID))
		}
		image = post.Image

		commentIDs, err := comments.IDsByPost(post.ID)
		if err != nil {
			return err
		}
		// likes on comments go before the comments themselves
		if err := likes.DeleteByTargets(models.TargetComment, commentIDs); err != nil {
			return err
		}
		if err := comments.DeleteByIDs(commentIDs); err != nil {
			return err
		}
		if err := likes.DeleteByTargets(models.TargetPost, []uint{post.ID}); err != nil {
			return err
		}
		return posts.Delete(post.ID)
	})
	if err != nil {
		return err
	}
	removeAsset(s.assets, image)
	return nil
}
