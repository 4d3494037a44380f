package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/socialbbs/services"
	"github.com/cppla/socialbbs/utils"
)

// PostController manages posts and the post feeds.
type PostController struct {
	posts *services.PostService
	feed  *services.FeedService
}

// NewPostController creates a new PostController instance.
func NewPostController(posts *services.PostService, feed *services.FeedService) *PostController {
	return &PostController{posts: posts, feed: feed}
}

// CreatePost accepts either a JSON body or a multipart form with an optional "image" file.
func (p *PostController) CreatePost(ctx *gin.Context) {
	authorID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}

	var (
		content string
		image   *multipart.FileHeader
	)
	if isMultipart(ctx) {
		content = ctx.PostForm("content")
		if fh, err := ctx.FormFile("image"); err == nil {
			image = fh
		}
	} else {
		var req struct {
			Content string `json:"content"`
		}
		if !bindData(ctx, &req) {
			return
		}
		content = req.Content
	}

	post, err := p.posts.CreatePost(ctx.Request.Context(), authorID, content, image)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Respond(ctx, http.StatusCreated, 1, gin.H{"post": post})
}

// ListPosts returns the author's posts, newest first.
func (p *PostController) ListPosts(ctx *gin.Context) {
	authorID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	posts, err := p.feed.PostsByAuthor(ctx.Request.Context(), authorID, utils.ParsePage(ctx))
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, len(posts), gin.H{"posts": posts})
}

// HomeFeed returns posts by everyone the user follows.
func (p *PostController) HomeFeed(ctx *gin.Context) {
	userID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	posts, err := p.feed.HomeFeed(ctx.Request.Context(), userID, utils.ParsePage(ctx))
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, len(posts), gin.H{"posts": posts})
}

// GetPost returns a single post with counts and the comment preview.
func (p *PostController) GetPost(ctx *gin.Context) {
	authorID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "postId")
	if !ok {
		return
	}
	post, err := p.posts.GetPost(ctx.Request.Context(), authorID, postID)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, 1, gin.H{"post": post})
}

// UpdatePost allows the author to change the content of their post.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	authorID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "postId")
	if !ok {
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if !bindData(ctx, &req) {
		return
	}
	post, err := p.posts.UpdatePost(ctx.Request.Context(), authorID, postID, req.Content)
	if err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.Success(ctx, 1, gin.H{"post": post})
}

// DeletePost allows the author to delete their post with everything hanging off it.
func (p *PostController) DeletePost(ctx *gin.Context) {
	authorID, ok := pathID(ctx, "userId")
	if !ok {
		return
	}
	postID, ok := pathID(ctx, "postId")
	if !ok {
		return
	}
	if err := p.posts.DeletePost(ctx.Request.Context(), authorID, postID); err != nil {
		utils.HandleError(ctx, err)
		return
	}
	utils.NoContent(ctx)
}
