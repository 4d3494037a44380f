package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/repository"
	"github.com/cppla/socialbbs/utils"
)

// ExploreLimit caps the explore suggestions.
const ExploreLimit = 20

// FeedService serves the read-only listings.
type FeedService struct {
	db *gorm.DB
}

func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

func (s *FeedService) requireUser(db *gorm.DB, id uint) error {
	ok, err := repository.NewUserRepository(db).ExistsActive(id)
	if err != nil {
		return err
	}
	if !ok {
		return userNotFound(id)
	}
	return nil
}

// PostsByAuthor lists authorID's posts, newest first.
func (s *FeedService) PostsByAuthor(ctx context.Context, authorID uint, page utils.Page) ([]models.Post, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireUser(db, authorID); err != nil {
		return nil, err
	}
	return repository.NewPostRepository(db).ListByAuthor(authorID, page)
}

// HomeFeed lists posts by everyone userID follows, newest first.
func (s *FeedService) HomeFeed(ctx context.Context, userID uint, page utils.Page) ([]models.Post, error) {
	db := s.db.WithContext(ctx)
	following, err := repository.NewUserRepository(db).FollowingIDs(userID)
	if err != nil {
		return nil, err
	}
	return repository.NewPostRepository(db).ListByAuthors(following, page)
}

// CommentsByPost lists the comments on postID, newest first.
func (s *FeedService) CommentsByPost(ctx context.Context, postID uint, page utils.Page) ([]models.Comment, error) {
	db := s.db.WithContext(ctx)
	if _, err := repository.NewPostRepository(db).FindByID(postID); err != nil {
		return nil, orNotFound(err, postNotFound(postID))
	}
	return repository.NewCommentRepository(db).ListByPost(postID, page)
}

// Explore suggests up to ExploreLimit users that userID does not follow yet.
func (s *FeedService) Explore(ctx context.Context, userID uint) ([]models.User, error) {
	return repository.NewUserRepository(s.db.WithContext(ctx)).Explore(userID, ExploreLimit)
}

// Search matches names case-insensitively. A blank query matches nothing and
// never reaches the database.
func (s *FeedService) Search(ctx context.Context, name string, page utils.Page) ([]models.User, error) {
	if strings.TrimSpace(name) == "" {
		return []models.User{}, nil
	}
	return repository.NewUserRepository(s.db.WithContext(ctx)).SearchByName(strings.TrimSpace(name), page)
}

// Following lists who userID follows.
func (s *FeedService) Following(ctx context.Context, userID uint, page utils.Page) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireUser(db, userID); err != nil {
		return nil, err
	}
	return repository.NewUserRepository(db).ListFollowing(userID, page)
}

// Followers lists who follows userID.
func (s *FeedService) Followers(ctx context.Context, userID uint, page utils.Page) ([]models.User, error) {
	db := s.db.WithContext(ctx)
	if err := s.requireUser(db, userID); err != nil {
		return nil, err
	}
	return repository.NewUserRepository(db).ListFollowers(userID, page)
}
