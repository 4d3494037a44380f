// Package repository wraps GORM queries for the persisted models. Every
// constructor takes a *gorm.DB so the same code runs inside a transaction.
package repository

import (
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/utils"
)

// activeUsers excludes deactivated accounts. All user reads go through it.
func activeUsers(db *gorm.DB) *gorm.DB {
	return db.Where("users.is_deactivated = ?", false)
}

// newestUsersFirst orders user listings by signup time.
func newestUsersFirst(db *gorm.DB) *gorm.DB {
	return db.Order("users.created_at DESC").Order("users.id DESC")
}

func paginate(page utils.Page) func(*gorm.DB) *gorm.DB {
	page = utils.NormalizePage(page)
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(page.Skip).Limit(page.Limit)
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// UserRepository reads and writes accounts and the follow graph.
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) active() *gorm.DB {
	return r.db.Model(&models.User{}).Scopes(activeUsers)
}

// Create inserts a new account.
func (r *UserRepository) Create(user *models.User) error {
	return r.db.Omit(clause.Associations).Create(user).Error
}

// FindActiveByID returns an active user with both edge lists filled.
func (r *UserRepository) FindActiveByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.active().Where("users.id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	if err := r.loadEdges([]*models.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindActiveByEmail looks an active user up by normalised email.
func (r *UserRepository) FindActiveByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.active().Where("users.email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error; err != nil {
		return nil, err
	}
	if err := r.loadEdges([]*models.User{&user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// ExistsActive reports whether an active user with id exists.
func (r *UserRepository) ExistsActive(id uint) (bool, error) {
	var n int64
	err := r.active().Where("users.id = ?", id).Count(&n).Error
	return n > 0, err
}

// EmailTaken reports whether any account, active or not, already uses email.
func (r *UserRepository) EmailTaken(email string, exceptID uint) (bool, error) {
	var n int64
	q := r.db.Model(&models.User{}).Where("email = ?", email)
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// ListActive returns active users, newest first.
func (r *UserRepository) ListActive(page utils.Page) ([]models.User, error) {
	var users []models.User
	if err := r.active().Scopes(newestUsersFirst, paginate(page)).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, r.loadEdgesSlice(users)
}

// SearchByName matches name case-insensitively as a substring.
func (r *UserRepository) SearchByName(name string, page utils.Page) ([]models.User, error) {
	pattern := "%" + likeEscaper.Replace(strings.ToLower(name)) + "%"
	var users []models.User
	err := r.active().
		Where("LOWER(users.name) LIKE ? ESCAPE '!'", pattern).
		Scopes(newestUsersFirst, paginate(page)).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, r.loadEdgesSlice(users)
}

// Explore suggests active users that userID neither is nor follows.
func (r *UserRepository) Explore(userID uint, limit int) ([]models.User, error) {
	followed := r.db.Model(&models.UserFollowing{}).Select("following_id").Where("user_id = ?", userID)
	var users []models.User
	err := r.active().
		Where("users.id <> ?", userID).
		Where("users.id NOT IN (?)", followed).
		Scopes(newestUsersFirst).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, r.loadEdgesSlice(users)
}

// ListFollowing returns the active users userID follows, most recently followed first.
func (r *UserRepository) ListFollowing(userID uint, page utils.Page) ([]models.User, error) {
	var users []models.User
	err := r.active().
		Select("users.*").
		Joins("JOIN user_following ON user_following.following_id = users.id").
		Where("user_following.user_id = ?", userID).
		Order("user_following.created_at DESC").Order("users.id DESC").
		Scopes(paginate(page)).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, r.loadEdgesSlice(users)
}

// ListFollowers returns the active users following userID, most recent first.
func (r *UserRepository) ListFollowers(userID uint, page utils.Page) ([]models.User, error) {
	var users []models.User
	err := r.active().
		Select("users.*").
		Joins("JOIN user_followers ON user_followers.follower_id = users.id").
		Where("user_followers.user_id = ?", userID).
		Order("user_followers.created_at DESC").Order("users.id DESC").
		Scopes(paginate(page)).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, r.loadEdgesSlice(users)
}

// FollowingIDs returns the ids userID follows.
func (r *UserRepository) FollowingIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.UserFollowing{}).Where("user_id = ?", userID).Pluck("following_id", &ids).Error
	return ids, err
}

// IsFollowing reports whether the edge userID -> targetID exists.
func (r *UserRepository) IsFollowing(userID, targetID uint) (bool, error) {
	var n int64
	err := r.db.Model(&models.UserFollowing{}).
		Where("user_id = ? AND following_id = ?", userID, targetID).
		Count(&n).Error
	return n > 0, err
}

// AddFollow writes both sides of userID -> targetID. Existing edges are kept.
func (r *UserRepository) AddFollow(userID, targetID uint) error {
	now := time.Now()
	if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserFollowing{UserID: userID, FollowingID: targetID, CreatedAt: now}).Error; err != nil {
		return err
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserFollower{UserID: targetID, FollowerID: userID, CreatedAt: now}).Error
}

// RemoveFollow deletes both sides of userID -> targetID.
func (r *UserRepository) RemoveFollow(userID, targetID uint) error {
	if err := r.db.Where("user_id = ? AND following_id = ?", userID, targetID).
		Delete(&models.UserFollowing{}).Error; err != nil {
		return err
	}
	return r.db.Where("user_id = ? AND follower_id = ?", targetID, userID).
		Delete(&models.UserFollower{}).Error
}

// UpdateFields writes the given columns of user id.
func (r *UserRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.User{ID: id}).Omit(clause.Associations).Updates(fields).Error
}

// SetResetToken stores a reset token digest and its expiry.
func (r *UserRepository) SetResetToken(id uint, digest string, expiresAt time.Time) error {
	return r.UpdateFields(id, map[string]interface{}{
		"password_change_token":      digest,
		"password_change_expires_at": expiresAt,
	})
}

// SetPassword replaces the hash, clears any reset token and rotates the epoch.
func (r *UserRepository) SetPassword(id uint, hash, epoch string) error {
	return r.UpdateFields(id, map[string]interface{}{
		"password_hash":              hash,
		"password_change_token":      "",
		"password_change_expires_at": nil,
		"password_change_epoch":      epoch,
	})
}

// Deactivate soft deletes the account.
func (r *UserRepository) Deactivate(id uint) error {
	return r.UpdateFields(id, map[string]interface{}{"is_deactivated": true})
}

func (r *UserRepository) loadEdgesSlice(users []models.User) error {
	ptrs := make([]*models.User, len(users))
	for i := range users {
		ptrs[i] = &users[i]
	}
	return r.loadEdges(ptrs)
}

// loadEdges fills Following and Followers for users with two batched queries.
func (r *UserRepository) loadEdges(users []*models.User) error {
	if len(users) == 0 {
		return nil
	}
	byID := make(map[uint]*models.User, len(users))
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		u.Following = []uint{}
		u.Followers = []uint{}
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}
	ids = utils.UniqueUint(ids)

	var following []models.UserFollowing
	if err := r.db.Where("user_id IN ?", ids).Order("created_at ASC").Find(&following).Error; err != nil {
		return err
	}
	for _, e := range following {
		if u := byID[e.UserID]; u != nil {
			u.Following = append(u.Following, e.FollowingID)
		}
	}

	var followers []models.UserFollower
	if err := r.db.Where("user_id IN ?", ids).Order("created_at ASC").Find(&followers).Error; err != nil {
		return err
	}
	for _, e := range followers {
		if u := byID[e.UserID]; u != nil {
			u.Followers = append(u.Followers, e.FollowerID)
		}
	}
	return nil
}
