// Package services holds the operations behind the HTTP handlers: account
// lifecycle, the follow graph, posts, comments, likes and listings.
package services

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/cppla/socialbbs/storage"
	"github.com/cppla/socialbbs/utils"
)

const assetDeleteTimeout = 30 * time.Second

func userNotFound(id uint) error {
	return utils.NotFound("No user found with this id '%d'.", id)
}

func postNotFound(id uint) error {
	return utils.NotFound("No post found with this id '%d'.", id)
}

func ownedPostNotFound(postID, authorID uint) error {
	return utils.NotFound("No post found with this id '%d' and created by this user id '%d'.", postID, authorID)
}

func commentNotFound(id uint) error {
	return utils.NotFound("No comment found with this id '%d'.", id)
}

func ownedCommentNotFound(commentID, authorID uint) error {
	return utils.NotFound("No comment found with this id '%d' and created by this user id '%d'.", commentID, authorID)
}

// orNotFound swaps gorm.ErrRecordNotFound for the given domain error.
func orNotFound(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return err
}

// imageError maps storage rejections to validation errors.
func imageError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotImage):
		return utils.ValidationError("Image files are only allowed for upload")
	case errors.Is(err, storage.ErrTooLarge):
		return utils.ValidationError("Image file has to be less than or equal to %d MB.", storage.MaxImageSize>>20)
	default:
		return err
	}
}

// removeAsset deletes ref in the background. Failures are logged only.
func removeAsset(store storage.AssetStore, ref string) {
	if store == nil || ref == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), assetDeleteTimeout)
		defer cancel()
		if err := store.Delete(ctx, ref); err != nil {
			utils.Logger.Warn("asset removal failed", zap.String("ref", ref), zap.Error(err))
		}
	}()
}
