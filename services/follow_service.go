package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/repository"
	"github.com/cppla/socialbbs/utils"
)

// FollowService toggles follow edges. Both sides of an edge change in one transaction.
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// ToggleFollow makes userID follow targetID, or unfollow when already following.
// It returns userID's account with updated edge lists.
func (s *FollowService) ToggleFollow(ctx context.Context, userID, targetID uint) (*models.User, error) {
	if userID == targetID {
		return nil, utils.InvalidOperation("FollowId has to be different from userId.")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUserRepository(tx)
		ok, err := users.ExistsActive(userID)
		if err != nil {
			return err
		}
		if !ok {
			return userNotFound(userID)
		}

		following, err := users.IsFollowing(userID, targetID)
		if err != nil {
			return err
		}
		if following {
			return users.RemoveFollow(userID, targetID)
		}

		// a deactivated account can be unfollowed but not followed
		ok, err = users.ExistsActive(targetID)
		if err != nil {
			return err
		}
		if !ok {
			return userNotFound(targetID)
		}
		return users.AddFollow(userID, targetID)
	})
	if err != nil {
		return nil, err
	}

	user, err := repository.NewUserRepository(s.db.WithContext(ctx)).FindActiveByID(userID)
	if err != nil {
		return nil, orNotFound(err, userNotFound(userID))
	}
	return user, nil
}
