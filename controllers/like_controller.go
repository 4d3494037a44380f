package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/socialbbs/services"
	"github.com/cppla/socialbbs/utils"
)

// LikeController toggles likes. Posts and comments have separate routes.
type LikeController struct {
	likes *services.LikeService
}

func NewLikeController(likes *services.LikeService) *LikeController {
	return &LikeController{likes: likes}
}

// LikePost toggles the caller's like on :postId.
func (l *LikeController) LikePost(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "postId")
	if !ok {
		return
	}
	res, err := l.likes.LikePost(ctx.Request.Context(), userID, postID)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 1, res)
}

// LikeComment toggles the caller's like on :commentId.
func (l *LikeController) LikeComment(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "postId")
	if !ok {
		return
	}
	commentID, ok := pathID(ctx, "commentId")
	if !ok {
		return
	}
	res, err := l.likes.LikeComment(ctx.Request.Context(), userID, postID, commentID)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 1, res)
}
