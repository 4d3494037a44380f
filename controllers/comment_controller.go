package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/socialbbs/services"
	"github.com/cppla/socialbbs/utils"
)

// CommentController manages comments on a post.
type CommentController struct {
	comments *services.CommentService
	feed     *services.FeedService
}

func NewCommentController(comments *services.CommentService, feed *services.FeedService) *CommentController {
	return &CommentController{comments: comments, feed: feed}
}

type commentRequest struct {
	Content string `json:"content"`
}

// ListComments returns the post's comments, newest first.
func (c *CommentController) ListComments(ctx *gin.Context) {
	postID, ok := pathID(ctx, "postId")
	if !ok {
		return
	}
	comments, err := c.feed.CommentsByPost(ctx.Request.Context(), postID, utils.ParsePage(ctx))
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, len(comments), gin.H{"comments": comments})
}

// CreateComment adds a comment authored by :userId.
func (c *CommentController) CreateComment(ctx *gin.Context) {
	authorID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "postId")
	if !ok {
		return
	}
	var req commentRequest
	if !bindData(ctx, &req) {
		return
	}
	comment, err := c.comments.CreateComment(ctx.Request.Context(), authorID, postID, req.Content)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 1, gin.H{"comment": comment})
}

// UpdateComment changes the content of the caller's comment.
func (c *CommentController) UpdateComment(ctx *gin.Context) {
	authorID, ok := pathID(ctx, "userId")
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
	var req commentRequest
	if !bindData(ctx, &req) {
		return
	}
	comment, err := c.comments.UpdateComment(ctx.Request.Context(), authorID, postID, commentID, req.Content)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, 1, gin.H{"comment": comment})
}

// DeleteComment removes the caller's comment and its likes.
func (c *CommentController) DeleteComment(ctx *gin.Context) {
	authorID, ok := pathID(ctx, "userId")
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
	if err := c.comments.DeleteComment(ctx.Request.Context(), authorID, postID, commentID); err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.NoContent(ctx)
}
