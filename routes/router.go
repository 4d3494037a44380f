package routes

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/socialbbs/config"
	"github.com/cppla/socialbbs/controllers"
	"github.com/cppla/socialbbs/middleware"
	"github.com/cppla/socialbbs/models"
	"github.com/cppla/socialbbs/services"
	"github.com/cppla/socialbbs/storage"
	"github.com/cppla/socialbbs/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(cfg config.AppConfig, db *gorm.DB, assets storage.AssetStore, notifier services.Notifier) *gin.Engine {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// access log goes to its own rolling file; fall back to the app logger
	gl, err := utils.NewRollingFileLogger(cfg, cfg.GinPath)
	if err != nil {
		gl = utils.Logger
	}
	r.Use(utils.Ginzap(gl, time.RFC3339, true))
	r.Use(utils.RecoveryWithZap(gl, true))
	r.Use(cors.New(corsConfig(cfg)))

	if strings.EqualFold(cfg.StorageDriver, "local") && strings.HasPrefix(cfg.StoragePublicURL, "/") {
		r.Static(cfg.StoragePublicURL, cfg.StorageLocalDir)
	}

	accounts := services.NewAccountService(db, assets, notifier, cfg)
	feed := services.NewFeedService(db)

	userController := controllers.NewUserController(accounts, services.NewFollowService(db), feed)
	postController := controllers.NewPostController(services.NewPostService(db, assets), feed)
	commentController := controllers.NewCommentController(services.NewCommentService(db), feed)
	likeController := controllers.NewLikeController(services.NewLikeService(db))
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController(accounts)

	r.GET("/health", statsController.Health)

	authRequired := middleware.AuthRequired(accounts)
	owner := middleware.AuthorizeUserID("userId")
	moderator := middleware.Authorize(models.RoleModerator)

	api := r.Group("/api/v1")
	api.Use(middleware.NewRateLimiter(cfg.RateLimitPerMinute).Middleware())
	api.GET("/stats", authRequired, moderator, statsController.GetStats)
	api.GET("/config/limits", configController.GetLimits)

	users := api.Group("/users")
	users.POST("/signup", userController.Signup)
	users.POST("/signin", userController.Signin)
	users.POST("/forgotPassword", userController.ForgotPassword)
	users.PATCH("/resetPassword/:resetToken", userController.ResetPassword)

	protected := users.Group("")
	protected.Use(authRequired)
	protected.POST("/logout", userController.Logout)
	protected.GET("/search", userController.Search)
	protected.GET("", moderator, userController.ListUsers)
	protected.GET("/:userId", userController.GetUser)
	protected.GET("/:userId/following", userController.Following)
	protected.GET("/:userId/followers", userController.Followers)
	protected.PATCH("/:userId", owner, userController.UpdateUser)
	protected.DELETE("/:userId", owner, userController.DeleteUser)
	protected.PATCH("/:userId/updatePassword", owner, userController.UpdatePassword)
	protected.PATCH("/:userId/follow/:followId", owner, userController.Follow)
	protected.GET("/:userId/explore", owner, userController.Explore)

	posts := protected.Group("/:userId/posts")
	posts.GET("", postController.ListPosts)
	posts.POST("", owner, postController.CreatePost)
	posts.GET("/home", owner, postController.HomeFeed)
	posts.GET("/:postId", postController.GetPost)
	posts.PATCH("/:postId", owner, postController.UpdatePost)
	posts.DELETE("/:postId", owner, postController.DeletePost)
	posts.POST("/:postId/likes", owner, likeController.LikePost)

	comments := posts.Group("/:postId/comments")
	comments.GET("", commentController.ListComments)
	comments.POST("", owner, commentController.CreateComment)
	comments.PATCH("/:commentId", owner, commentController.UpdateComment)
	comments.DELETE("/:commentId", owner, commentController.DeleteComment)
	comments.POST("/:commentId/likes", owner, likeController.LikeComment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, fmt.Sprintf("Can't '%s' on '%s'.", ctx.Request.Method, ctx.Request.URL.Path))
	})

	return r
}

func corsConfig(cfg config.AppConfig) cors.Config {
	c := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 && cfg.ClientHost != "" {
		origins = []string{cfg.ClientHost}
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
	} else {
		c.AllowOrigins = origins
	}
	return c
}
